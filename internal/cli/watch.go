package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/internal/realtime"
)

var (
	watchAdmin bool
	watchStaff bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream realtime notifications to the terminal",
	Long: `Connects to the realtime channel, auto-joins the role room for the
given flags, and prints every notification as a log line. Useful to verify
what a dashboard would see.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := realtime.NewClient(cfg.ClientOptions())
		if watchAdmin || watchStaff {
			client.SetIdentity(realtime.Identity{
				IsAdmin:         watchAdmin,
				HasStaffProfile: watchStaff,
			})
		}

		n := client.Notifier()
		cancels := []func(){
			n.Connectivity.Subscribe(func(up bool) {
				log.Info().Str("module", "watch").Bool("connected", up).Msg("connectivity")
			}),
			n.NewOrder.Subscribe(func(o realtime.Order) {
				log.Info().Str("module", "watch").Int64("order_id", o.ID).
					Str("table", o.TableNumber).Str("status", o.Status).Msg("new order")
			}),
			n.OrderUpdated.Subscribe(func(u realtime.OrderUpdate) {
				log.Info().Str("module", "watch").Int64("order_id", u.OrderID).
					Str("status", u.Status).Msg("order updated")
			}),
			n.OrderStatus.Subscribe(func(o realtime.Order) {
				log.Info().Str("module", "watch").Int64("order_id", o.ID).
					Str("status", o.Status).Msg("order status")
			}),
			n.TrackingStarted.Subscribe(func(s realtime.TrackingStarted) {
				log.Info().Str("module", "watch").Int64("order_id", s.OrderID).Msg("tracking started")
			}),
			n.WaiterCall.Subscribe(func(c realtime.WaiterCall) {
				log.Info().Str("module", "watch").Str("call_id", c.ID).
					Str("table", c.TableNumber).Str("message", c.CustomerMessage).Msg("waiter call")
			}),
			n.WaiterCallUpdate.Subscribe(func(c realtime.WaiterCall) {
				log.Info().Str("module", "watch").Str("call_id", c.ID).
					Str("status", c.Status).Msg("waiter call update")
			}),
			n.WaiterCallSent.Subscribe(func(c realtime.WaiterCallSent) {
				log.Info().Str("module", "watch").Str("call_id", c.CallID).Msg("waiter call sent")
			}),
		}
		defer func() {
			for _, cancel := range cancels {
				cancel()
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client.Start()
		defer client.Close()

		<-ctx.Done()
		log.Info().Str("module", "watch").Msg("shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchAdmin, "admin", false, "watch as an admin/manager identity")
	watchCmd.Flags().BoolVar(&watchStaff, "staff", false, "watch as a staff identity")
}
