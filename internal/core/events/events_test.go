package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/training-records/internal/core/events"
	"github.com/frahmantamala/training-records/pkg/logger"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("Bus", func() {
	var (
		ctx context.Context
		bus *events.Bus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewBus(logger.Discard())
	})

	It("should deliver only to subscribers of the event type", func() {
		var created, deleted int32
		bus.Subscribe(events.TypeTrainingCreated, func(context.Context, events.Event) error {
			atomic.AddInt32(&created, 1)
			return nil
		})
		bus.Subscribe(events.TypeTrainingDeleted, func(context.Context, events.Event) error {
			atomic.AddInt32(&deleted, 1)
			return nil
		})

		Expect(bus.Publish(ctx, events.NewChange(events.TypeTrainingCreated, 1, 10, 3))).To(Succeed())
		bus.Wait()

		Expect(atomic.LoadInt32(&created)).To(Equal(int32(1)))
		Expect(atomic.LoadInt32(&deleted)).To(BeZero())
	})

	It("should not surface background handler failures", func() {
		bus.Subscribe(events.TypeUserDeleted, func(context.Context, events.Event) error {
			return errors.New("boom")
		})

		Expect(bus.Publish(ctx, events.NewChange(events.TypeUserDeleted, 1, 5, 0))).To(Succeed())
		bus.Wait()
	})

	It("should keep handlers running after the request context ends", func() {
		var seen error
		done := make(chan struct{})
		bus.Subscribe(events.TypeUserCreated, func(hctx context.Context, _ events.Event) error {
			seen = hctx.Err()
			close(done)
			return nil
		})

		reqCtx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(bus.Publish(reqCtx, events.NewChange(events.TypeUserCreated, 7, 7, 0))).To(Succeed())
		Eventually(done).Should(BeClosed())
		Expect(seen).ToNot(HaveOccurred())
	})

	It("should stop at the first failing handler when publishing synchronously", func() {
		calls := 0
		bus.Subscribe(events.TypeTrainingUpdated, func(context.Context, events.Event) error {
			calls++
			return errors.New("rejected")
		})
		bus.Subscribe(events.TypeTrainingUpdated, func(context.Context, events.Event) error {
			calls++
			return nil
		})

		err := bus.PublishSync(ctx, events.NewChange(events.TypeTrainingUpdated, 1, 2, 3))

		Expect(err).To(MatchError(ContainSubstring("training.updated")))
		Expect(calls).To(Equal(1))
	})
})

var _ = Describe("Change", func() {
	It("should omit the owner for user events", func() {
		c := events.NewChange(events.TypeUserDeleted, 1, 9, 0)

		Expect(c.EventID()).ToNot(BeEmpty())
		Expect(c.Payload()).To(Equal(map[string]interface{}{"actor_id": int64(1), "subject_id": int64(9)}))
	})
})

var _ = Describe("SubscribeAuditLog", func() {
	It("should log every emitted change type", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		bus := events.NewBus(logger.Discard())
		events.SubscribeAuditLog(bus, lg)

		for _, t := range events.AllTypes {
			Expect(bus.PublishSync(context.Background(), events.NewChange(t, 1, 2, 0))).To(Succeed())
		}

		out := buf.String()
		for _, t := range events.AllTypes {
			Expect(out).To(ContainSubstring(`"event_type":"` + t + `"`))
		}
		Expect(out).To(ContainSubstring(`"component":"audit"`))
	})
})
