// Package stats derives participation and completion figures from users and
// their training records. Everything here is pure and allocation-bounded by
// the input size; callers load the data and call Compute once per request.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/user"
)

const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"

	// TopOrganizerLimit caps Snapshot.TopOrganizers.
	TopOrganizerLimit = 5
)

// Query is the input of Compute. Year nil means the calendar year of Now.
type Query struct {
	Users   []*user.User
	Records []*training.Record
	Year    *int
	Now     time.Time
}

type OrganizerCount struct {
	Organizer string `json:"organizer"`
	Count     int    `json:"count"`
}

// EmployeeProgress is one monitored employee's row.
type EmployeeProgress struct {
	UserID           int64      `json:"user_id"`
	Nama             string     `json:"nama"`
	NIP              string     `json:"nip"`
	Jabatan          string     `json:"jabatan"`
	RecordCount      int        `json:"record_count"`
	YearRecordCount  int        `json:"year_record_count"`
	TotalHours       int        `json:"total_hours"`
	YearHours        int        `json:"year_hours"`
	CertificateCount int        `json:"certificate_count"`
	LastTraining     *time.Time `json:"last_training"`
	Status           string     `json:"status"`
}

type Snapshot struct {
	Year              int                `json:"year"`
	TotalEmployees    int                `json:"total_employees"`
	Participants      int                `json:"participants"`
	YearRecords       int                `json:"year_records"`
	CompletionRate    float64            `json:"completion_rate"`
	CertificateRate   float64            `json:"certificate_rate"`
	TotalHours        int                `json:"total_hours"`
	AverageHours      int                `json:"average_hours"`
	TopOrganizers     []OrganizerCount   `json:"top_organizers"`
	PerEmployee       []EmployeeProgress `json:"per_employee"`
	UnfilledEmployees []EmployeeProgress `json:"unfilled_employees"`
}

// ReferenceYear resolves the year a query reports on.
func ReferenceYear(year *int, now time.Time) int {
	if year != nil {
		return *year
	}
	return now.Year()
}

// Compute builds the monitoring snapshot. Only active employees are counted;
// records owned by anyone else are ignored.
func Compute(q Query) Snapshot {
	year := ReferenceYear(q.Year, q.Now)

	population := make([]*user.User, 0, len(q.Users))
	index := make(map[int64]int, len(q.Users))
	for _, u := range q.Users {
		if u == nil || !u.IsMonitored() {
			continue
		}
		if _, dup := index[u.ID]; dup {
			continue
		}
		index[u.ID] = len(population)
		population = append(population, u)
	}

	rows := make([]EmployeeProgress, len(population))
	for i, u := range population {
		rows[i] = EmployeeProgress{
			UserID:  u.ID,
			Nama:    u.Nama,
			NIP:     u.NIP,
			Jabatan: u.Jabatan,
		}
	}

	var (
		yearRecords     int
		withCertificate int
		totalHours      int
		participants    = make(map[int64]struct{})
		organizerCounts = make(map[string]int)
		organizerOrder  []string
	)

	for _, rec := range q.Records {
		if rec == nil {
			continue
		}
		i, ok := index[rec.OwnerID]
		if !ok {
			continue
		}

		hours := Hours(rec.Notes)
		row := &rows[i]
		row.RecordCount++
		row.TotalHours += hours
		if rec.HasCertificate() {
			row.CertificateCount++
		}
		// strictly after, so the first of equal dates wins
		if row.LastTraining == nil || rec.StartDate.After(*row.LastTraining) {
			d := rec.StartDate
			row.LastTraining = &d
		}

		if rec.Year() != year {
			continue
		}

		row.YearRecordCount++
		row.YearHours += hours
		yearRecords++
		totalHours += hours
		participants[rec.OwnerID] = struct{}{}
		if rec.HasCertificate() {
			withCertificate++
		}

		organizer := strings.TrimSpace(rec.Organizer)
		if _, seen := organizerCounts[organizer]; !seen {
			organizerOrder = append(organizerOrder, organizer)
		}
		organizerCounts[organizer]++
	}

	unfilled := make([]EmployeeProgress, 0)
	for i := range rows {
		if rows[i].YearRecordCount > 0 {
			rows[i].Status = StatusComplete
			continue
		}
		rows[i].Status = StatusIncomplete
		unfilled = append(unfilled, rows[i])
	}

	return Snapshot{
		Year:              year,
		TotalEmployees:    len(population),
		Participants:      len(participants),
		YearRecords:       yearRecords,
		CompletionRate:    percentage(len(participants), len(population)),
		CertificateRate:   percentage(withCertificate, yearRecords),
		TotalHours:        totalHours,
		AverageHours:      average(totalHours, len(participants)),
		TopOrganizers:     topOrganizers(organizerOrder, organizerCounts, TopOrganizerLimit),
		PerEmployee:       rows,
		UnfilledEmployees: unfilled,
	}
}

// ProgressOf returns the row for userID, or false when the user is not monitored.
func (s Snapshot) ProgressOf(userID int64) (EmployeeProgress, bool) {
	for _, row := range s.PerEmployee {
		if row.UserID == userID {
			return row, true
		}
	}
	return EmployeeProgress{}, false
}

// Hours reads teaching hours from free-text notes: the unsigned integer at
// the start of the text, after leading whitespace. Anything else is 0.
func Hours(notes *string) int {
	if notes == nil {
		return 0
	}
	s := strings.TrimLeft(*notes, " \t\r\n")
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (math.MaxInt32-d)/10 {
			return 0
		}
		n = n*10 + d
	}
	return n
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func average(total, count int) int {
	if count <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}

func topOrganizers(order []string, counts map[string]int, limit int) []OrganizerCount {
	result := make([]OrganizerCount, 0, len(order))
	for _, name := range order {
		result = append(result, OrganizerCount{Organizer: name, Count: counts[name]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
