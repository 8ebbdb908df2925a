package middleware

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("sensitive data filtering", func() {
	It("should mask secrets at any depth of a JSON body", func() {
		out := filterSensitiveBody([]byte(`{"username":"budi","password":"x","tokens":{"refresh_token":"y"},"items":[{"api_key":"z"}]}`))

		Expect(out).To(ContainSubstring(`"username":"budi"`))
		Expect(out).NotTo(ContainSubstring(`"x"`))
		Expect(out).NotTo(ContainSubstring(`"y"`))
		Expect(out).NotTo(ContainSubstring(`"z"`))
	})

	It("should hide plain-text bodies that mention secrets", func() {
		Expect(filterSensitiveBody([]byte("password=hunter2"))).To(Equal("[FILTERED - Contains sensitive data]"))
		Expect(filterSensitiveBody([]byte("hello"))).To(Equal("hello"))
	})

	It("should mask authorization headers", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer abc")
		h.Set("Accept", "application/json")

		filtered := filterSensitiveHeaders(h)

		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})
})
