package stats_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/stats"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/user"
)

func TestStats(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Statistics Suite")
}

func employee(id int64, nama string) *user.User {
	return &user.User{ID: id, Nama: nama, Role: auth.RoleEmployee, Status: user.StatusActive}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

var nextID int64

func record(owner int64, start time.Time, organizer string, notes, cert *string) *training.Record {
	nextID++
	return &training.Record{
		ID:              nextID,
		OwnerID:         owner,
		Theme:           "Pelatihan",
		Organizer:       organizer,
		StartDate:       start,
		EndDate:         start,
		Notes:           notes,
		CertificatePath: cert,
	}
}

var _ = Describe("Compute", func() {
	year := 2024
	now := date(2024, time.June, 1)

	Context("with empty input", func() {
		It("should report zeros without failing", func() {
			snap := stats.Compute(stats.Query{Now: now})

			Expect(snap.Year).To(Equal(2024))
			Expect(snap.TotalEmployees).To(Equal(0))
			Expect(snap.CompletionRate).To(Equal(0.0))
			Expect(snap.CertificateRate).To(Equal(0.0))
			Expect(snap.AverageHours).To(Equal(0))
			Expect(snap.TopOrganizers).To(BeEmpty())
			Expect(snap.PerEmployee).To(BeEmpty())
			Expect(snap.UnfilledEmployees).ToNot(BeNil())
			Expect(snap.UnfilledEmployees).To(BeEmpty())
		})

		It("should report zero rates for employees with no records", func() {
			snap := stats.Compute(stats.Query{Users: []*user.User{employee(1, "A")}, Year: &year})

			Expect(snap.TotalEmployees).To(Equal(1))
			Expect(snap.CompletionRate).To(Equal(0.0))
			Expect(snap.CertificateRate).To(Equal(0.0))
			Expect(snap.UnfilledEmployees).To(HaveLen(1))
		})
	})

	Context("with three employees and one filled in the year", func() {
		var snap stats.Snapshot

		BeforeEach(func() {
			users := []*user.User{employee(1, "A"), employee(2, "B"), employee(3, "C")}
			records := []*training.Record{
				record(1, date(2024, time.March, 4), "BPS Pusat", strPtr("16 jam"), strPtr("/cert/a.pdf")),
				record(3, date(2024, time.May, 10), "Pusdiklat", nil, nil),
				record(3, date(2023, time.January, 5), "Pusdiklat", strPtr("8"), nil),
			}
			snap = stats.Compute(stats.Query{Users: users, Records: records, Year: &year, Now: now})
		})

		It("should compute the completion rate to one decimal", func() {
			Expect(snap.Participants).To(Equal(2))
			Expect(snap.CompletionRate).To(Equal(66.7))
		})

		It("should list B as unfilled with no last training", func() {
			Expect(snap.UnfilledEmployees).To(HaveLen(1))
			Expect(snap.UnfilledEmployees[0].UserID).To(Equal(int64(2)))
			Expect(snap.UnfilledEmployees[0].LastTraining).To(BeNil())
			Expect(snap.UnfilledEmployees[0].Status).To(Equal(stats.StatusIncomplete))
		})

		It("should count certificates among year records only", func() {
			Expect(snap.YearRecords).To(Equal(2))
			Expect(snap.CertificateRate).To(Equal(50.0))
		})

		It("should keep all-time figures in the per-employee rows", func() {
			c, ok := snap.ProgressOf(3)
			Expect(ok).To(BeTrue())
			Expect(c.RecordCount).To(Equal(2))
			Expect(c.YearRecordCount).To(Equal(1))
			Expect(c.TotalHours).To(Equal(8))
			Expect(c.YearHours).To(Equal(0))
			Expect(*c.LastTraining).To(Equal(date(2024, time.May, 10)))
			Expect(c.Status).To(Equal(stats.StatusComplete))
		})

		It("should sum and average the year's hours over participants", func() {
			Expect(snap.TotalHours).To(Equal(16))
			Expect(snap.AverageHours).To(Equal(8))
		})
	})

	Context("with two employees where only A trained", func() {
		It("should report 50 percent and B unfilled", func() {
			users := []*user.User{employee(1, "A"), employee(2, "B")}
			records := []*training.Record{record(1, date(2024, time.February, 1), "BPS", nil, nil)}

			snap := stats.Compute(stats.Query{Users: users, Records: records, Year: &year})

			Expect(snap.CompletionRate).To(Equal(50.0))
			Expect(snap.UnfilledEmployees).To(HaveLen(1))
			Expect(snap.UnfilledEmployees[0].Nama).To(Equal("B"))
			Expect(snap.UnfilledEmployees[0].LastTraining).To(BeNil())
		})
	})

	It("should not depend on record order", func() {
		users := []*user.User{employee(1, "A"), employee(2, "B"), employee(3, "C")}
		records := []*training.Record{
			record(1, date(2024, time.January, 1), "X", nil, nil),
			record(2, date(2024, time.February, 1), "Y", nil, strPtr("c")),
			record(1, date(2022, time.February, 1), "Z", nil, nil),
		}
		reversed := []*training.Record{records[2], records[1], records[0]}

		a := stats.Compute(stats.Query{Users: users, Records: records, Year: &year})
		b := stats.Compute(stats.Query{Users: users, Records: reversed, Year: &year})

		Expect(a.CompletionRate).To(Equal(b.CompletionRate))
		Expect(a.CertificateRate).To(Equal(b.CertificateRate))
		Expect(a.Participants).To(Equal(b.Participants))
	})

	It("should ignore admins, supervisors, inactive users and unknown owners", func() {
		admin := &user.User{ID: 10, Role: auth.RoleAdmin, Status: user.StatusActive}
		kepala := &user.User{ID: 11, Role: auth.RoleSupervisor, Status: user.StatusActive}
		inactive := &user.User{ID: 12, Role: auth.RoleEmployee, Status: user.StatusInactive}
		records := []*training.Record{
			record(10, date(2024, time.January, 1), "X", nil, nil),
			record(11, date(2024, time.January, 1), "X", nil, nil),
			record(12, date(2024, time.January, 1), "X", nil, nil),
			record(99, date(2024, time.January, 1), "X", nil, nil),
		}

		snap := stats.Compute(stats.Query{
			Users:   []*user.User{admin, kepala, inactive, employee(1, "A")},
			Records: records,
			Year:    &year,
		})

		Expect(snap.TotalEmployees).To(Equal(1))
		Expect(snap.YearRecords).To(Equal(0))
		Expect(snap.TopOrganizers).To(BeEmpty())
	})

	It("should default to the year of Now", func() {
		users := []*user.User{employee(1, "A")}
		records := []*training.Record{record(1, date(2025, time.March, 1), "X", nil, nil)}

		snap := stats.Compute(stats.Query{Users: users, Records: records, Now: date(2025, time.December, 31)})

		Expect(snap.Year).To(Equal(2025))
		Expect(snap.CompletionRate).To(Equal(100.0))
	})

	It("should keep the first of equal last training dates", func() {
		first := record(1, date(2024, time.April, 1), "X", nil, nil)
		second := record(1, date(2024, time.April, 1), "Y", nil, nil)

		snap := stats.Compute(stats.Query{Users: []*user.User{employee(1, "A")}, Records: []*training.Record{first, second}, Year: &year})

		Expect(*snap.PerEmployee[0].LastTraining).To(Equal(first.StartDate))
	})

	Describe("top organizers", func() {
		It("should break ties by first appearance", func() {
			users := []*user.User{employee(1, "A")}
			records := []*training.Record{
				record(1, date(2024, time.January, 1), "Beta", nil, nil),
				record(1, date(2024, time.January, 2), "Alpha", nil, nil),
				record(1, date(2024, time.January, 3), "Alpha", nil, nil),
				record(1, date(2024, time.January, 4), " Beta ", nil, nil),
				record(1, date(2024, time.January, 5), "Gamma", nil, nil),
			}

			snap := stats.Compute(stats.Query{Users: users, Records: records, Year: &year})

			Expect(snap.TopOrganizers).To(Equal([]stats.OrganizerCount{
				{Organizer: "Beta", Count: 2},
				{Organizer: "Alpha", Count: 2},
				{Organizer: "Gamma", Count: 1},
			}))
		})

		It("should return at most five", func() {
			users := []*user.User{employee(1, "A")}
			var records []*training.Record
			for i, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
				records = append(records, record(1, date(2024, time.January, i+1), name, nil, nil))
			}

			snap := stats.Compute(stats.Query{Users: users, Records: records, Year: &year})

			Expect(snap.TopOrganizers).To(HaveLen(stats.TopOrganizerLimit))
			Expect(snap.TopOrganizers[0].Organizer).To(Equal("A"))
		})
	})

	It("should round average hours", func() {
		users := []*user.User{employee(1, "A"), employee(2, "B")}
		records := []*training.Record{
			record(1, date(2024, time.January, 1), "X", strPtr("3"), nil),
			record(2, date(2024, time.January, 1), "X", strPtr("2"), nil),
		}

		snap := stats.Compute(stats.Query{Users: users, Records: records, Year: &year})

		Expect(snap.TotalHours).To(Equal(5))
		Expect(snap.AverageHours).To(Equal(3))
	})

	It("should tolerate nil entries", func() {
		snap := stats.Compute(stats.Query{
			Users:   []*user.User{nil, employee(1, "A"), employee(1, "A")},
			Records: []*training.Record{nil},
			Year:    &year,
		})

		Expect(snap.TotalEmployees).To(Equal(1))
	})
})

var _ = DescribeTable("Hours",
	func(notes *string, expected int) {
		Expect(stats.Hours(notes)).To(Equal(expected))
	},
	Entry("nil notes", (*string)(nil), 0),
	Entry("leading number with unit", strPtr("40 jam"), 40),
	Entry("leading whitespace", strPtr("  \t12 jam"), 12),
	Entry("no number", strPtr("jam"), 0),
	Entry("empty", strPtr(""), 0),
	Entry("negative sign", strPtr("-3"), 0),
	Entry("number after text", strPtr("total 8"), 0),
	Entry("overflow", strPtr("99999999999999999999"), 0),
	Entry("digits then punctuation", strPtr("24,5 jam"), 24),
)
