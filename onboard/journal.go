package onboard

import (
	"log"
	"sync"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/index"
	"github.com/pkg/errors"
)

// HazardEvent is a persisted change of hazard direction.
type HazardEvent struct {
	ID        int       `storm:"id,increment" json:"id"`
	RunID     string    `storm:"index" json:"run"`
	Direction string    `storm:"index" json:"direction"`
	Left      *int      `json:"left"`
	Center    *int      `json:"center"`
	Right     *int      `json:"right"`
	Command   string    `json:"command"`
	At        time.Time `storm:"index" json:"at"`
}

func newHazardEvent(obs Observation) *HazardEvent {
	return &HazardEvent{
		RunID:     obs.RunID,
		Direction: obs.Scan.Direction.String(),
		Left:      obs.Scan.Readings[HazardLeft],
		Center:    obs.Scan.Readings[HazardCenter],
		Right:     obs.Scan.Readings[HazardRight],
		Command:   obs.Command.String(),
		At:        obs.At,
	}
}

// Journal keeps a history of hazard transitions. Steady state observations are not stored.
type Journal struct {
	db   *storm.DB
	lock sync.Mutex
	last *HazardDirection
}

func NewJournal(db *storm.DB) (j *Journal, err error) {
	if err = db.Init(&HazardEvent{}); err != nil {
		return nil, errors.Wrap(err, "unable to init hazard journal")
	}
	return &Journal{db: db}, nil
}

// Record stores obs if its direction differs from the previously seen one. stored reports whether it was written.
func (j *Journal) Record(obs Observation) (stored bool, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	d := obs.Scan.Direction
	if j.last != nil && *j.last == d {
		return false, nil
	}

	if err = j.db.Save(newHazardEvent(obs)); err != nil {
		return false, errors.Wrapf(err, "unable to save %s hazard event", d)
	}
	j.last = &d
	return true, nil
}

// Observe is a Bot observer wrapping Record.
func (j *Journal) Observe(obs Observation) {
	if _, err := j.Record(obs); err != nil {
		log.Println(err)
	}
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(limit int) (events []HazardEvent, err error) {
	events = []HazardEvent{}
	opts := []func(*index.Options){storm.Reverse()}
	if limit > 0 {
		opts = append(opts, storm.Limit(limit))
	}

	err = j.db.All(&events, opts...)
	return
}

func (j *Journal) ByDirection(d HazardDirection) (events []HazardEvent, err error) {
	events = []HazardEvent{}
	err = j.db.Find("Direction", d.String(), &events)
	if err == storm.ErrNotFound {
		return events, nil
	}
	return
}
