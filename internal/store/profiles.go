package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/shiftclock/internal/profile"
)

// GetProfile returns owner's settings, or the defaults if none were saved.
func (s *Store) GetProfile(owner string) (profile.Profile, error) {
	p := profile.Default()
	err := s.db.QueryRow(
		`SELECT hourly_rate, currency, idle_minutes FROM profiles WHERE owner_id = ?`, owner,
	).Scan(&p.HourlyRate, &p.Currency, &p.IdleMinutes)
	if err == sql.ErrNoRows {
		return profile.Default(), nil
	}
	if err != nil {
		return p, fmt.Errorf("get profile %q: %w", owner, err)
	}
	return p, nil
}

func (s *Store) SaveProfile(owner string, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if unit, err := profile.ParseCurrency(p.Currency); err == nil {
		p.Currency = unit.String()
	}
	_, err := s.db.Exec(`
		INSERT INTO profiles (owner_id, hourly_rate, currency, idle_minutes, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			hourly_rate = excluded.hourly_rate,
			currency = excluded.currency,
			idle_minutes = excluded.idle_minutes,
			updated_at = excluded.updated_at`,
		owner, p.HourlyRate, p.Currency, p.IdleMinutes, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.publishProfile(owner, p)
	return nil
}
