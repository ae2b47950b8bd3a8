//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/daemon"
	"github.com/liftops/kioskd/internal/domain"
	"github.com/liftops/kioskd/internal/usecase"
	"github.com/liftops/kioskd/test/fixtures"
)

var _ = Describe("Launch Pipeline", func() {
	var (
		ctx        context.Context
		cancel     context.CancelFunc
		ws         *fixtures.FakeWindowSystem
		shell      *fixtures.FakeShell
		launcher   *fixtures.FakeLauncher
		processes  *fixtures.FakeProcessManager
		settings   *fixtures.FakeSettingsStore
		status     *fixtures.FakeStatusSink
		surface    *fixtures.FakeOverlaySurface
		state      *daemon.KioskState
		controller *daemon.Controller
	)

	apps := []domain.HostedApp{
		{
			Title:  "Indicator Client",
			Path:   `C:\RiceLake\Indicator\Client.exe`,
			Region: domain.RegionTop,
			Fill:   domain.PreserveNativeSize,
		},
		{
			Title:  "Bar-Code",
			Path:   `C:\RiceLake\BarCode\Client.exe`,
			Region: domain.RegionBottom,
			Fill:   domain.FillRegion,
		},
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		ws = fixtures.NewFakeWindowSystem()
		shell = fixtures.NewFakeShell(120)
		launcher = fixtures.NewFakeLauncher(ws)
		processes = fixtures.NewFakeProcessManager()
		settings = &fixtures.FakeSettingsStore{}
		status = &fixtures.FakeStatusSink{}
		surface = &fixtures.FakeOverlaySurface{}
		state = daemon.NewKioskState()

		logger := zap.NewNop()
		locator := usecase.NewLocator(
			usecase.LocatorConfig{PollInterval: 5 * time.Millisecond}, ws, logger)
		embedder := usecase.NewEmbedder(
			usecase.EmbedderConfig{
				TopmostClearAttempts: 2,
				TopmostClearInterval: 5 * time.Millisecond,
			}, ws, logger)

		blocker := daemon.NewOverlayBlocker(
			daemon.OverlayConfig{TickInterval: 5 * time.Millisecond, ForceTopmostEvery: 3},
			domain.RegionBottom, surface, ws, shell, state, logger)

		controller = daemon.NewController(
			daemon.ControllerConfig{
				LocateTimeout:           time.Second,
				LayoutWait:              50 * time.Millisecond,
				LayoutPollInterval:      5 * time.Millisecond,
				RestartDelay:            0,
				ReloadCooldown:          0,
				FocusAttempts:           0,
				FocusInterval:           time.Millisecond,
				CalibrationTopHeight:    900,
				CalibrationBottomHeight: 300,
			},
			daemon.GuardianConfig{
				TickInterval:    5 * time.Millisecond,
				RecheckDelay:    time.Millisecond,
				OriginTolerance: 20,
			},
			daemon.MonitorConfig{
				PollInterval: 5 * time.Millisecond,
				StartupGrace: time.Hour,
			},
			apps,
			daemon.ControllerDeps{
				State:        state,
				Locator:      locator,
				Embedder:     embedder,
				WindowSystem: ws,
				Regions:      shell,
				Launcher:     launcher,
				Processes:    processes,
				Settings:     settings,
				Status:       status,
				Overlays:     []*daemon.OverlayBlocker{blocker},
			},
			logger)
	})

	AfterEach(func() {
		cancel()
		controller.Wait()
	})

	Describe("Startup", func() {
		Context("when both applications come up normally", func() {
			It("embeds each window into its region", func() {
				Expect(controller.Start(ctx)).To(Succeed())

				top, ok := state.App("Indicator Client")
				Expect(ok).To(BeTrue())
				bottom, ok := state.App("Bar-Code")
				Expect(ok).To(BeTrue())

				Expect(ws.ParentOf(top.Window)).To(Equal(domain.Handle(801)))
				Expect(ws.ParentOf(bottom.Window)).To(Equal(domain.Handle(802)))
				Expect(ws.StyleOf(top.Window) & domain.StyleChild).NotTo(BeZero())
				Expect(ws.StyleOf(bottom.Window) & domain.StyleChild).NotTo(BeZero())
			})

			It("strips the native chrome from both windows", func() {
				Expect(controller.Start(ctx)).To(Succeed())

				for _, title := range []string{"Indicator Client", "Bar-Code"} {
					app, ok := state.App(title)
					Expect(ok).To(BeTrue())
					style := ws.StyleOf(app.Window)
					Expect(style & domain.StyleCaption).To(BeZero())
					Expect(style & domain.StyleThickFrame).To(BeZero())
				}
			})

			It("activates the overlay over the bottom region", func() {
				Expect(controller.Start(ctx)).To(Succeed())

				Eventually(surface.Visible, time.Second, 5*time.Millisecond).Should(BeTrue())
				Eventually(func() domain.Rect {
					return surface.CurrentFrame()
				}, time.Second, 5*time.Millisecond).Should(Equal(
					domain.Rect{X: 0, Y: 120, Width: 1920, Height: 960}))
			})

			It("clears the loading flag when the pipeline finishes", func() {
				Expect(controller.Start(ctx)).To(Succeed())
				Expect(state.Loading()).To(BeFalse())
			})
		})

		Context("when a hosted app fights the embedding", func() {
			It("re-embeds within a guardian cycle", func() {
				Expect(controller.Start(ctx)).To(Succeed())

				top, _ := state.App("Indicator Client")

				// The app breaks loose and restores its popup chrome.
				Expect(ws.SetParent(top.Window, 0)).To(Succeed())
				Expect(ws.SetStyle(top.Window, domain.StyleCaption|domain.StylePopup)).To(Succeed())

				Eventually(func() domain.Handle {
					return ws.ParentOf(top.Window)
				}, time.Second, time.Millisecond).Should(Equal(domain.Handle(801)))
				Eventually(func() domain.WindowStyle {
					return ws.StyleOf(top.Window) & domain.StyleChild
				}, time.Second, time.Millisecond).ShouldNot(BeZero())
			})
		})
	})

	Describe("Reload", func() {
		It("terminates the old processes and embeds fresh windows", func() {
			Expect(controller.Start(ctx)).To(Succeed())

			oldTop, _ := state.App("Indicator Client")
			oldBottom, _ := state.App("Bar-Code")

			Expect(controller.RequestReload(ctx, "test reload")).To(Succeed())

			Expect(processes.IsRunning(oldTop.PID)).To(BeFalse())
			Expect(processes.IsRunning(oldBottom.PID)).To(BeFalse())

			newTop, _ := state.App("Indicator Client")
			newBottom, _ := state.App("Bar-Code")
			Expect(newTop.PID).NotTo(Equal(oldTop.PID))
			Expect(newBottom.PID).NotTo(Equal(oldBottom.PID))
			Expect(ws.ParentOf(newTop.Window)).To(Equal(domain.Handle(801)))
			Expect(ws.ParentOf(newBottom.Window)).To(Equal(domain.Handle(802)))

			Expect(state.Loading()).To(BeFalse())
			Expect(state.TransitionInFlight()).To(BeFalse())
		})

		It("rejects a second transition while one is in flight", func() {
			Expect(controller.Start(ctx)).To(Succeed())

			Expect(state.BeginTransition()).To(BeTrue())
			defer state.EndTransition()

			Expect(controller.RequestReload(ctx, "concurrent")).To(
				MatchError(domain.ErrTransitionInFlight))
		})
	})
})
