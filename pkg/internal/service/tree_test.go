package service

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/internal/model"
)

func dryRun(t *testing.T, d gorm.Dialector) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(d, &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open %s: %v", d.Name(), err)
	}

	return db
}

func TestLockRows(t *testing.T) {
	tests := []struct {
		name     string
		db       func(*testing.T) *gorm.DB
		strength string
		want     string
	}{
		{
			name:     "postgres share",
			db:       func(t *testing.T) *gorm.DB { return dryRun(t, postgres.Open("host=localhost")) },
			strength: lockShare,
			want:     "FOR SHARE",
		},
		{
			name:     "postgres update",
			db:       func(t *testing.T) *gorm.DB { return dryRun(t, postgres.Open("host=localhost")) },
			strength: lockUpdate,
			want:     "FOR UPDATE",
		},
		{
			name:     "sqlite",
			db:       func(t *testing.T) *gorm.DB { return dryRun(t, sqlite.Open(":memory:")) },
			strength: lockShare,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := tt.db(t)

			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return lockRows(tx, tt.strength).First(&model.Folder{}, 7)
			})

			if tt.want == "" {
				if strings.Contains(sql, " FOR ") {
					t.Fatalf("unexpected locking clause: %s", sql)
				}

				return
			}

			if !strings.Contains(sql, tt.want) {
				t.Fatalf("%s missing %q", sql, tt.want)
			}
		})
	}
}
