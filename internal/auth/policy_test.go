package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/training-records/internal"
)

var _ = ginkgo.Describe("Access policy", func() {
	var (
		admin      = Identity{ID: 1, Role: RoleAdmin}
		supervisor = Identity{ID: 2, Role: RoleSupervisor}
		employee   = Identity{ID: 3, Role: RoleEmployee}
		unknown    = Identity{ID: 4, Role: Role("auditor")}
	)

	ginkgo.Describe("CanListUsers", func() {
		ginkgo.It("should allow only admins", func() {
			gomega.Expect(CanListUsers(admin)).To(gomega.Succeed())
			gomega.Expect(CanListUsers(supervisor)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanListUsers(employee)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanListUsers(unknown)).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("CanDeleteUser", func() {
		ginkgo.It("should let admins delete employees and supervisors", func() {
			gomega.Expect(CanDeleteUser(admin, RoleEmployee)).To(gomega.Succeed())
			gomega.Expect(CanDeleteUser(admin, RoleSupervisor)).To(gomega.Succeed())
		})

		ginkgo.It("should never allow deleting an admin, whoever asks", func() {
			for _, caller := range []Identity{admin, supervisor, employee, unknown} {
				gomega.Expect(CanDeleteUser(caller, RoleAdmin)).To(gomega.Equal(internal.ErrAdminUndeletable))
			}
		})

		ginkgo.It("should forbid non-admins", func() {
			gomega.Expect(CanDeleteUser(employee, RoleEmployee)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanDeleteUser(supervisor, RoleEmployee)).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("CanChangeAccount", func() {
		ginkgo.It("should keep admins in the admin role and active", func() {
			// Given an admin account
			// When anyone tries to demote or deactivate it
			// Then the change is refused with its own code
			gomega.Expect(CanChangeAccount(admin, RoleAdmin, RoleEmployee, false)).To(gomega.Equal(internal.ErrAdminLocked))
			gomega.Expect(CanChangeAccount(admin, RoleAdmin, RoleSupervisor, false)).To(gomega.Equal(internal.ErrAdminLocked))
			gomega.Expect(CanChangeAccount(admin, RoleAdmin, RoleAdmin, true)).To(gomega.Equal(internal.ErrAdminLocked))
			gomega.Expect(CanChangeAccount(admin, RoleAdmin, RoleAdmin, false)).To(gomega.Succeed())
		})

		ginkgo.It("should let admins move and deactivate everyone else", func() {
			gomega.Expect(CanChangeAccount(admin, RoleEmployee, RoleAdmin, false)).To(gomega.Succeed())
			gomega.Expect(CanChangeAccount(admin, RoleSupervisor, RoleEmployee, true)).To(gomega.Succeed())
		})

		ginkgo.It("should forbid non-admins before looking at the target", func() {
			gomega.Expect(CanChangeAccount(employee, RoleEmployee, RoleEmployee, false)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanChangeAccount(supervisor, RoleAdmin, RoleEmployee, false)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanChangeAccount(unknown, RoleEmployee, RoleEmployee, false)).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("TrainingScope", func() {
		ginkgo.It("should leave admins and supervisors unscoped", func() {
			scope, err := TrainingScope(admin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(scope).To(gomega.BeNil())

			scope, err = TrainingScope(supervisor)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(scope).To(gomega.BeNil())
		})

		ginkgo.It("should pin employees to themselves", func() {
			scope, err := TrainingScope(employee)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(*scope).To(gomega.Equal(employee.ID))
		})

		ginkgo.It("should deny unknown roles", func() {
			_, err := TrainingScope(unknown)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("training record rules", func() {
		ginkgo.It("should let owners and admins create and update", func() {
			gomega.Expect(CanCreateTrainingRecord(employee, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanCreateTrainingRecord(admin, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanCreateTrainingRecord(employee, 99)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanCreateTrainingRecord(supervisor, employee.ID)).To(gomega.Equal(internal.ErrForbidden))

			gomega.Expect(CanUpdateTrainingRecord(employee, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanUpdateTrainingRecord(employee, 99)).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("should keep deletion admin-only, owners included", func() {
			gomega.Expect(CanDeleteTrainingRecord(admin, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanDeleteTrainingRecord(employee, employee.ID)).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(CanDeleteTrainingRecord(supervisor, employee.ID)).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("should let supervisors view but employees only their own", func() {
			gomega.Expect(CanViewTrainingRecord(supervisor, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanViewTrainingRecord(employee, employee.ID)).To(gomega.Succeed())
			gomega.Expect(CanViewTrainingRecord(employee, 99)).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("CanViewStatistics", func() {
		ginkgo.It("should allow admins and supervisors", func() {
			gomega.Expect(CanViewStatistics(admin)).To(gomega.Succeed())
			gomega.Expect(CanViewStatistics(supervisor)).To(gomega.Succeed())
			gomega.Expect(CanViewStatistics(employee)).To(gomega.Equal(internal.ErrForbidden))
		})
	})

	ginkgo.Describe("ParseRole", func() {
		ginkgo.It("should accept exactly the known roles", func() {
			for _, name := range RoleNames() {
				r, err := ParseRole(name)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(r.String()).To(gomega.Equal(name))
			}
			_, err := ParseRole("manager")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
