package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/shiftclock/internal/entry"
)

const projectColumns = `id, owner_id, name, color, archived, created_at, updated_at`

func (s *Store) CreateProject(owner, name, color string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("insert project: %w: name is required", entry.ErrValidation)
	}
	now := formatTime(time.Now())
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO projects (id, owner_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, owner, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	s.publishProjects(owner)
	return s.GetProject(id)
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var createdAt, updatedAt string
	var archived int
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Color, &archived, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.Archived = archived == 1
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, fmt.Errorf("project %s created: %w", p.ID, err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return p, fmt.Errorf("project %s updated: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) GetProject(id string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get project %s", id))
	}
	return &p, nil
}

func (s *Store) ListProjects(owner string, includeArchived bool) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, owner)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectNames maps project ids to names for display and export.
func (s *Store) ProjectNames(owner string) (map[string]string, error) {
	projects, err := s.ListProjects(owner, true)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (s *Store) UpdateProject(id, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("update project: %w: name is required", entry.ErrValidation)
	}
	return s.updateProject(id, `UPDATE projects SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, formatTime(time.Now()), id)
}

func (s *Store) ArchiveProject(id string) error {
	return s.updateProject(id, `UPDATE projects SET archived = 1, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), id)
}

// DeleteProject removes a project; its entries fall back to the General bucket.
func (s *Store) DeleteProject(id string) error {
	p, err := s.GetProject(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	s.publishProjects(p.OwnerID)
	s.publishEntries(p.OwnerID)
	return nil
}

func (s *Store) updateProject(id, query string, args ...any) error {
	p, err := s.GetProject(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	s.publishProjects(p.OwnerID)
	return nil
}
