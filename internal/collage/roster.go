package collage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrBadRoster is returned when the roster lacks a required column.
var ErrBadRoster = errors.New("collage: bad roster")

// Roster column names.
const (
	colID       = "N"
	colName     = "Nombre"
	colSurname1 = "Apellido 1"
	colSurname2 = "Apellido 2"
)

type Student struct {
	ID       string
	Name     string
	Surname1 string
	Surname2 string
}

// FullName joins name and surnames, skipping an empty second surname.
func (s Student) FullName() string {
	parts := []string{s.Name, s.Surname1}
	if s.Surname2 != "" {
		parts = append(parts, s.Surname2)
	}
	return strings.Join(parts, " ")
}

func LoadRoster(path string) ([]Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	students, err := ReadRoster(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return students, nil
}

// ReadRoster parses a ';'-separated roster with a header row.
func ReadRoster(r io.Reader) ([]Student, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRoster, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{colID, colName, colSurname1} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadRoster, col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var students []Student
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRoster, err)
		}
		s := Student{
			ID:       field(rec, colID),
			Name:     field(rec, colName),
			Surname1: field(rec, colSurname1),
			Surname2: field(rec, colSurname2),
		}
		if s.ID == "" {
			continue
		}
		students = append(students, s)
	}
	return students, nil
}
