package data

import (
	"sync"

	"github.com/overruled-app/overruled/src/courtapi/types"
	"gorm.io/gorm"
)

// The settings table holds operator-tunable courtroom knobs (judge provider,
// model, persona, allowed frontend origin) so they can be changed without a
// redeploy. Environment variables always win over table values.

var defaultSettings = map[string]string{
	"judge_provider": "openai",
	"judge_persona":  "stern",
}

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// EnsureDefaultSettings inserts missing default rows. Existing rows are
// never overwritten; operators own them once created.
func EnsureDefaultSettings(db *gorm.DB) error {
	var existing []types.Setting
	if err := db.Find(&existing).Error; err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	var maxID uint8
	for _, s := range existing {
		present[s.Name] = true
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	for name, value := range defaultSettings {
		if present[name] {
			continue
		}
		maxID++
		if err := db.Create(&types.Setting{ID: maxID, Name: name, Value: value}).Error; err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings reads the whole settings table into the cache.
func LoadSettings(db *gorm.DB) error {
	var settings []types.Setting
	if err := db.Find(&settings).Error; err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string)
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}
	return nil
}

// GetSetting returns a cached setting value, or "" when unset.
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}
