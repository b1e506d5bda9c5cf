package database

import (
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"github.com/thinkscotty/wikichat/internal/models"
)

const (
	keyVoiceEnabled = "voice_enabled"
	keyVoiceRate    = "voice_rate"
	keyVoicePitch   = "voice_pitch"
)

// loadSettingsCache populates the in-memory settings cache from the database.
func (db *DB) loadSettingsCache() error {
	rows, err := db.conn.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return err
	}
	defer rows.Close()

	db.cacheMu.Lock()
	defer db.cacheMu.Unlock()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		db.settings[key] = value
	}
	return rows.Err()
}

// GetSetting returns sql.ErrNoRows when key has never been set.
func (db *DB) GetSetting(key string) (string, error) {
	db.cacheMu.RLock()
	v, ok := db.settings[key]
	db.cacheMu.RUnlock()
	if ok {
		return v, nil
	}
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	db.cacheMu.Lock()
	db.settings[key] = value
	db.cacheMu.Unlock()
	return value, nil
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))`,
		key, value)
	if err != nil {
		return err
	}
	db.cacheMu.Lock()
	db.settings[key] = value
	db.cacheMu.Unlock()
	return nil
}

// VoicePrefs returns the stored narration settings, using def for anything
// never saved or unparseable.
func (db *DB) VoicePrefs(def models.VoicePrefs) models.VoicePrefs {
	p := def
	if v, err := db.GetSetting(keyVoiceEnabled); err == nil {
		if b, err := strconv.ParseBool(v); err == nil {
			p.Enabled = b
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("Failed to read voice setting", "key", keyVoiceEnabled, "error", err)
	}
	p.Rate = db.floatSetting(keyVoiceRate, def.Rate)
	p.Pitch = db.floatSetting(keyVoicePitch, def.Pitch)
	return p
}

func (db *DB) SaveVoicePrefs(p models.VoicePrefs) error {
	values := map[string]string{
		keyVoiceEnabled: strconv.FormatBool(p.Enabled),
		keyVoiceRate:    strconv.FormatFloat(p.Rate, 'f', -1, 64),
		keyVoicePitch:   strconv.FormatFloat(p.Pitch, 'f', -1, 64),
	}
	for key, value := range values {
		if err := db.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) floatSetting(key string, def float64) float64 {
	v, err := db.GetSetting(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Failed to read voice setting", "key", key, "error", err)
		}
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
