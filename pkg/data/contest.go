package data

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/stvctl/pkg/stv"
	"github.com/pkg/errors"
)

const (
	insertContestSQL = `INSERT INTO contest
		(id, source, counted_at, seats, quota, valid_ballots, elected, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectContestSQL = `SELECT id, source, counted_at, seats, quota, valid_ballots, elected, result
		FROM contest WHERE id = ?
	`

	listContestsSQL = `SELECT id, source, counted_at, seats, quota, valid_ballots, elected
		FROM contest ORDER BY counted_at DESC LIMIT ?
	`
)

// ContestRecord is a saved count outcome. Result is only populated when a
// single record is fetched; list queries skip the round trace.
type ContestRecord struct {
	ID           string      `json:"id" yaml:"id"`
	Source       string      `json:"source" yaml:"source"`
	CountedAt    time.Time   `json:"counted_at" yaml:"counted_at"`
	Seats        int         `json:"seats" yaml:"seats"`
	Quota        int         `json:"quota" yaml:"quota"`
	ValidBallots int         `json:"valid_ballots" yaml:"valid_ballots"`
	Elected      []string    `json:"elected" yaml:"elected"`
	Result       *stv.Result `json:"result,omitempty" yaml:"result,omitempty"`
}

// SaveContest records a finished count. Only the final outcome and its
// audit trace are stored, never in-progress state.
func SaveContest(db *sql.DB, source string, res *stv.Result) (*ContestRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if res == nil {
		return nil, errors.New("result required")
	}

	rec := &ContestRecord{
		ID:           uuid.NewString(),
		Source:       source,
		CountedAt:    time.Now().UTC(),
		Seats:        res.Seats,
		Quota:        res.Quota,
		ValidBallots: res.ValidBallots,
		Elected:      res.Elected,
	}

	b, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize result")
	}

	stmt, err := db.Prepare(insertContestSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare contest insert statement")
	}

	if _, err = stmt.Exec(rec.ID, rec.Source, rec.CountedAt.Format(time.RFC3339), rec.Seats,
		rec.Quota, rec.ValidBallots, strings.Join(rec.Elected, ","), string(b)); err != nil {
		return nil, errors.Wrap(err, "failed to insert contest")
	}

	return rec, nil
}

// GetContest returns a single saved count with its full round trace.
func GetContest(db *sql.DB, id string) (*ContestRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	stmt, err := db.Prepare(selectContestSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare contest select statement")
	}

	var rec ContestRecord
	var countedAt, elected, result string
	row := stmt.QueryRow(id)
	if err := row.Scan(&rec.ID, &rec.Source, &countedAt, &rec.Seats, &rec.Quota,
		&rec.ValidBallots, &elected, &result); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Errorf("no saved count with id: %s", id)
		}
		return nil, errors.Wrap(err, "failed to scan contest row")
	}

	if err := fillContestRecord(&rec, countedAt, elected); err != nil {
		return nil, err
	}

	var res stv.Result
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		return nil, errors.Wrapf(err, "failed to parse saved result: %s", id)
	}
	rec.Result = &res

	return &rec, nil
}

// ListContests returns saved count summaries, most recent first.
func ListContests(db *sql.DB, limit int) ([]*ContestRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	stmt, err := db.Prepare(listContestsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare contest list statement")
	}

	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query contests")
	}
	defer rows.Close()

	list := make([]*ContestRecord, 0)
	for rows.Next() {
		var rec ContestRecord
		var countedAt, elected string
		if err := rows.Scan(&rec.ID, &rec.Source, &countedAt, &rec.Seats, &rec.Quota,
			&rec.ValidBallots, &elected); err != nil {
			return nil, errors.Wrap(err, "failed to scan contest row")
		}
		if err := fillContestRecord(&rec, countedAt, elected); err != nil {
			return nil, err
		}
		list = append(list, &rec)
	}

	return list, rows.Err()
}

func fillContestRecord(rec *ContestRecord, countedAt, elected string) error {
	t, err := time.Parse(time.RFC3339, countedAt)
	if err != nil {
		return errors.Wrapf(err, "failed to parse counted_at: %s", countedAt)
	}
	rec.CountedAt = t
	if elected != "" {
		rec.Elected = strings.Split(elected, ",")
	}
	return nil
}
