package model

import (
	"errors"
	"testing"
	"time"
)

func TestPageValidate(t *testing.T) {
	edited := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := map[string]struct {
		page    Page
		wantErr error
	}{
		"valid": {
			page: Page{ID: "pg-1", Title: "Notes", LastEdited: edited},
		},
		"missing id": {
			page:    Page{Title: "Notes", LastEdited: edited},
			wantErr: ErrMissingID,
		},
		"missing edit time": {
			page:    Page{ID: "pg-1", Title: "Notes"},
			wantErr: ErrMissingEditTime,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.page.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageEditedUTC(t *testing.T) {
	zone := time.FixedZone("PST", -8*3600)
	p := Page{ID: "pg-1", LastEdited: time.Date(2026, 6, 1, 16, 0, 0, 0, zone)}

	got := p.EditedUTC()
	want := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("EditedUTC() = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("EditedUTC() location = %v, want UTC", got.Location())
	}
}

func TestLinkSyncedWithin(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		syncedAt time.Time
		window   time.Duration
		want     bool
	}{
		"inside window":  {syncedAt: now.Add(-1 * time.Hour), window: 24 * time.Hour, want: true},
		"outside window": {syncedAt: now.Add(-25 * time.Hour), window: 24 * time.Hour, want: false},
		"exact boundary": {syncedAt: now.Add(-24 * time.Hour), window: 24 * time.Hour, want: false},
		"zero synced at": {window: 24 * time.Hour, want: false},
		"zone ignored": {
			syncedAt: time.Date(2026, 5, 10, 3, 30, 0, 0, time.FixedZone("PST", -8*3600)),
			window:   24 * time.Hour,
			want:     true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := Link{ExternalID: "pg-1", SyncedAt: tt.syncedAt}
			got := l.SyncedWithin(tt.window, now)
			if got != tt.want {
				t.Errorf("SyncedWithin(%v) = %v, want %v", tt.window, got, tt.want)
			}
		})
	}
}
