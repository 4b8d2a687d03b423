package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same query methods serve both transactional and plain execution.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Postgres implements Store on PostgreSQL via database/sql + lib/pq.
type Postgres struct {
	db *sql.DB
	q  querier
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, q: db}
}

func (s *Postgres) ListFamilies(ctx context.Context, ids []domain.FamilyID) ([]models.Family, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT f.id, f.name, COALESCE(f.campus_id, '00000000-0000-0000-0000-000000000000'::uuid),
		       COALESCE(c.name, ''), COALESCE(f.home_phone, '')
		FROM family f
		LEFT JOIN campus c ON c.id = f.campus_id
		WHERE f.id = ANY($1)`,
		pq.Array(uuidStrings(len(ids), func(i int) string { return ids[i].String() })),
	)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var out []models.Family
	for rows.Next() {
		var f models.Family
		var id, campusID uuid.UUID
		if err := rows.Scan(&id, &f.Name, &campusID, &f.CampusName, &f.HomePhone); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		f.ID = domain.FamilyID(id)
		f.CampusID = domain.CampusID(campusID)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Postgres) ListActiveMembers(ctx context.Context, familyIDs []domain.FamilyID) ([]models.FamilyMember, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.first_name, p.last_name, COALESCE(p.nick_name, ''), p.birth_date,
		       COALESCE(p.grade, ''), p.is_adult, p.is_deceased, p.has_allergy, p.special_needs,
		       fm.family_id, fm.role
		FROM family_member fm
		JOIN person p ON p.id = fm.person_id
		WHERE fm.family_id = ANY($1) AND fm.is_active`,
		pq.Array(uuidStrings(len(familyIDs), func(i int) string { return familyIDs[i].String() })),
	)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var out []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		var personID, familyID uuid.UUID
		var birthDate sql.NullTime
		var role string
		if err := rows.Scan(&personID, &m.Person.FirstName, &m.Person.LastName, &m.Person.NickName,
			&birthDate, &m.Person.Grade, &m.Person.IsAdult, &m.Person.IsDeceased,
			&m.Person.HasAllergy, &m.Person.SpecialNeeds, &familyID, &role); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		m.Person.ID = domain.PersonID(personID)
		m.FamilyID = domain.FamilyID(familyID)
		m.Role = models.FamilyRole(role)
		m.IsActive = true
		if birthDate.Valid {
			bd := birthDate.Time
			m.Person.BirthDate = &bd
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) ListCheckinsSince(ctx context.Context, personIDs []domain.PersonID, since time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, person_id, occurrence_id, security_code, issued_on, started_at, ended_at
		FROM attendance
		WHERE person_id = ANY($1) AND started_at >= $2`,
		pq.Array(uuidStrings(len(personIDs), func(i int) string { return personIDs[i].String() })),
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *Postgres) FindFamilyIDsByPhoneSuffix(ctx context.Context, suffixDigits string, limit int) ([]domain.FamilyID, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT DISTINCT family_id FROM (
			SELECT fm.family_id
			FROM person_phone pp
			JOIN family_member fm ON fm.person_id = pp.person_id AND fm.is_active
			WHERE pp.digits LIKE '%' || $1
			UNION ALL
			SELECT f.id
			FROM family f
			WHERE regexp_replace(COALESCE(f.home_phone, ''), '\D', '', 'g') LIKE '%' || $1
		) matches
		ORDER BY family_id
		LIMIT $2`,
		suffixDigits, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find families by phone suffix: %w", err)
	}
	defer rows.Close()
	return scanFamilyIDs(rows)
}

func (s *Postgres) FindFamilyIDsByName(ctx context.Context, name string, limit int) ([]domain.FamilyID, error) {
	// Wildcard metacharacters are escaped before pattern construction so a
	// query like "%" cannot become a match-everything probe.
	escaped := escapeLike(name)
	prefixPattern := escaped + "%"
	substrPattern := "%" + escaped + "%"

	rows, err := s.q.QueryContext(ctx, `
		SELECT fm.family_id
		FROM person p
		JOIN family_member fm ON fm.person_id = p.id AND fm.is_active
		WHERE p.is_deceased = FALSE
		  AND (p.first_name ILIKE $2 ESCAPE '\'
		    OR p.last_name ILIKE $2 ESCAPE '\'
		    OR COALESCE(p.nick_name, '') ILIKE $2 ESCAPE '\')
		GROUP BY fm.family_id
		ORDER BY MIN(CASE WHEN p.first_name ILIKE $1 ESCAPE '\'
		                    OR p.last_name ILIKE $1 ESCAPE '\'
		                    OR COALESCE(p.nick_name, '') ILIKE $1 ESCAPE '\'
		               THEN 0 ELSE 1 END),
		         fm.family_id
		LIMIT $3`,
		prefixPattern, substrPattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find families by name: %w", err)
	}
	defer rows.Close()
	return scanFamilyIDs(rows)
}

func (s *Postgres) FindLatestAttendanceByCodeOn(ctx context.Context, code string, day time.Time) (*models.AttendanceRecord, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, person_id, occurrence_id, security_code, issued_on, started_at, ended_at
		FROM attendance
		WHERE security_code = $1 AND issued_on = $2::date
		ORDER BY started_at DESC
		LIMIT 1`,
		code, day,
	)
	rec, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attendance by code: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) GetPerson(ctx context.Context, id domain.PersonID) (*models.Person, error) {
	var p models.Person
	var pid uuid.UUID
	var birthDate sql.NullTime
	err := s.q.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, COALESCE(nick_name, ''), birth_date,
		       COALESCE(grade, ''), is_adult, is_deceased, has_allergy, special_needs
		FROM person WHERE id = $1`,
		id.String(),
	).Scan(&pid, &p.FirstName, &p.LastName, &p.NickName, &birthDate,
		&p.Grade, &p.IsAdult, &p.IsDeceased, &p.HasAllergy, &p.SpecialNeeds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("person %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	p.ID = domain.PersonID(pid)
	if birthDate.Valid {
		bd := birthDate.Time
		p.BirthDate = &bd
	}
	return &p, nil
}

func (s *Postgres) FamilyIDForPerson(ctx context.Context, id domain.PersonID) (domain.FamilyID, error) {
	var fid uuid.UUID
	err := s.q.QueryRowContext(ctx, `
		SELECT family_id FROM family_member
		WHERE person_id = $1 AND is_active
		ORDER BY created_at
		LIMIT 1`,
		id.String(),
	).Scan(&fid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FamilyID{}, fmt.Errorf("family for person %s: %w", id, sentinel.ErrNotFound)
		}
		return domain.FamilyID{}, fmt.Errorf("family for person: %w", err)
	}
	return domain.FamilyID(fid), nil
}

func (s *Postgres) GetAttendance(ctx context.Context, id domain.AttendanceID) (*models.AttendanceRecord, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, person_id, occurrence_id, security_code, issued_on, started_at, ended_at
		FROM attendance WHERE id = $1`,
		id.String(),
	)
	rec, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attendance %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) ListActivePickupEntries(ctx context.Context, childID domain.PersonID) ([]models.AuthorizedPickupEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, child_id, person_id, COALESCE(free_text_name, ''), COALESCE(relationship, ''),
		       level, is_active, COALESCE(notes, ''), created_at
		FROM authorized_pickup_entry
		WHERE child_id = $1 AND is_active
		ORDER BY created_at`,
		childID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list pickup entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuthorizedPickupEntry
	for rows.Next() {
		e, err := scanPickupEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Postgres) GetPickupEntry(ctx context.Context, id domain.PickupEntryID) (*models.AuthorizedPickupEntry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, child_id, person_id, COALESCE(free_text_name, ''), COALESCE(relationship, ''),
		       level, is_active, COALESCE(notes, ''), created_at
		FROM authorized_pickup_entry WHERE id = $1`,
		id.String(),
	)
	e, err := scanPickupEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pickup entry %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (s *Postgres) InsertPickupEntries(ctx context.Context, entries []models.AuthorizedPickupEntry) error {
	for _, e := range entries {
		var personID any
		if e.PersonID != nil {
			personID = e.PersonID.String()
		}
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO authorized_pickup_entry
				(id, child_id, person_id, free_text_name, relationship, level, is_active, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID.String(), e.ChildID.String(), personID, e.FreeTextName, e.Relationship,
			e.Level.String(), e.IsActive, e.Notes, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert pickup entry: %w", err)
		}
	}
	return nil
}

func (s *Postgres) InsertPickupLog(ctx context.Context, entry models.PickupLogEntry) error {
	var personID, supervisorID any
	if entry.PickupPersonID != nil {
		personID = entry.PickupPersonID.String()
	}
	if entry.SupervisorID != nil {
		supervisorID = entry.SupervisorID.String()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO pickup_log
			(id, attendance_id, child_id, pickup_person_id, pickup_name,
			 was_authorized, supervisor_override, supervisor_id, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID.String(), entry.AttendanceID.String(), entry.ChildID.String(), personID,
		entry.PickupName, entry.WasAuthorized, entry.SupervisorOverride, supervisorID,
		entry.RecordedBy.String(), entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pickup log: %w", err)
	}
	return nil
}

func (s *Postgres) EndAttendance(ctx context.Context, id domain.AttendanceID, endedAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE attendance SET ended_at = $2
		WHERE id = $1 AND ended_at IS NULL`,
		id.String(), endedAt,
	)
	if err != nil {
		return fmt.Errorf("end attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end attendance rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attendance %s not open: %w", id, sentinel.ErrInvalidState)
	}
	return nil
}

// RunInTx runs fn against a transaction-bound copy of the store. A panic or
// error rolls the transaction back.
func (s *Postgres) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Postgres{db: s.db, q: tx}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// scanning helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	var id, personID, occurrenceID uuid.UUID
	var endedAt sql.NullTime
	if err := row.Scan(&id, &personID, &occurrenceID, &rec.SecurityCode,
		&rec.IssuedOn, &rec.StartedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	rec.ID = domain.AttendanceID(id)
	rec.PersonID = domain.PersonID(personID)
	rec.OccurrenceID = domain.OccurrenceID(occurrenceID)
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	return &rec, nil
}

func scanPickupEntry(row rowScanner) (*models.AuthorizedPickupEntry, error) {
	var e models.AuthorizedPickupEntry
	var id, childID uuid.UUID
	var personID uuid.NullUUID
	var level string
	if err := row.Scan(&id, &childID, &personID, &e.FreeTextName, &e.Relationship,
		&level, &e.IsActive, &e.Notes, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pickup entry: %w", err)
	}
	e.ID = domain.PickupEntryID(id)
	e.ChildID = domain.PersonID(childID)
	e.Level = domain.AuthorizationLevel(level)
	if personID.Valid {
		pid := domain.PersonID(personID.UUID)
		e.PersonID = &pid
	}
	return &e, nil
}

func scanFamilyIDs(rows *sql.Rows) ([]domain.FamilyID, error) {
	var out []domain.FamilyID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		out = append(out, domain.FamilyID(id))
	}
	return out, rows.Err()
}

func uuidStrings(n int, at func(int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = at(i)
	}
	return out
}

// escapeLike neutralizes LIKE/ILIKE metacharacters in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
