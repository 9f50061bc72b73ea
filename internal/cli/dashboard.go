package cli

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/internal/orders"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/internal/waiter"
)

var (
	dashAdmin bool
	dashStaff bool
)

// Keyboard shortcuts for advancing the selected order.
var statusKeys = map[rune]string{
	'1': "pending",
	'2': "preparing",
	'3': "ready",
	'4': "delivered",
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live operator dashboard (orders and waiter calls)",
	Long: `A terminal dashboard fed by the realtime channel: orders on the left,
waiter calls on the right, connectivity in the title bar.

Keys: 1-4 set the selected order's status, a acknowledges the oldest waiter
call, c completes it, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := realtime.NewClient(cfg.ClientOptions())
		identity := realtime.Identity{IsAdmin: dashAdmin, HasStaffProfile: dashStaff}
		if !dashAdmin && !dashStaff {
			identity.IsAdmin = true // operator tool, admin by default
		}
		client.SetIdentity(identity)
		_, userType := realtime.RoomForIdentity(identity)

		store := orders.NewStore()
		board := waiter.NewBoard()
		unbindStore := store.Bind(client.Notifier())
		unbindBoard := board.Bind(client.Notifier())
		defer unbindStore()
		defer unbindBoard()

		app := tview.NewApplication()

		orderTable := tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
		orderTable.SetBorder(true).SetTitle(" orders ")

		callList := tview.NewTextView().SetDynamicColors(true)
		callList.SetBorder(true).SetTitle(" waiter calls ")

		flex := tview.NewFlex().
			AddItem(orderTable, 0, 2, true).
			AddItem(callList, 0, 1, false)

		render := func(connected bool) {
			title := " dinesync — [red]offline[-] "
			if connected {
				title = " dinesync — [green]live[-] "
			}
			flex.SetBorder(true).SetTitle(title)

			orderTable.Clear()
			for col, h := range []string{"ID", "TABLE", "STATUS", "CUSTOMER", "TOTAL"} {
				orderTable.SetCell(0, col, tview.NewTableCell(h).
					SetSelectable(false).SetAttributes(tcell.AttrBold))
			}
			for row, o := range store.List() {
				orderTable.SetCell(row+1, 0, tview.NewTableCell(fmt.Sprintf("%d", o.ID)))
				orderTable.SetCell(row+1, 1, tview.NewTableCell(o.TableNumber))
				orderTable.SetCell(row+1, 2, tview.NewTableCell(o.Status))
				orderTable.SetCell(row+1, 3, tview.NewTableCell(o.CustomerName))
				orderTable.SetCell(row+1, 4, tview.NewTableCell(fmt.Sprintf("%.2f", o.Total)))
			}

			callList.Clear()
			for _, call := range board.Active() {
				color := "yellow"
				if call.Status == realtime.CallAcknowledged {
					color = "blue"
				}
				fmt.Fprintf(callList, "[%s]table %s[-] %s — %s\n",
					color, call.TableNumber, call.Status, call.CustomerMessage)
			}
		}
		render(false)

		redraw := func(connected bool) {
			app.QueueUpdateDraw(func() { render(connected) })
		}
		n := client.Notifier()
		cancels := []func(){
			n.Connectivity.Subscribe(redraw),
			n.NewOrder.Subscribe(func(realtime.Order) { redraw(client.Connected()) }),
			n.OrderStatus.Subscribe(func(realtime.Order) { redraw(client.Connected()) }),
			n.OrderUpdated.Subscribe(func(realtime.OrderUpdate) { redraw(client.Connected()) }),
			n.WaiterCall.Subscribe(func(realtime.WaiterCall) { redraw(client.Connected()) }),
			n.WaiterCallUpdate.Subscribe(func(realtime.WaiterCall) { redraw(client.Connected()) }),
		}
		defer func() {
			for _, cancel := range cancels {
				cancel()
			}
		}()

		selectedOrder := func() (int64, bool) {
			row, _ := orderTable.GetSelection()
			list := store.List()
			if row < 1 || row > len(list) {
				return 0, false
			}
			return list[row-1].ID, true
		}

		app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Key() != tcell.KeyRune {
				return event
			}
			switch r := event.Rune(); r {
			case 'q':
				app.Stop()
				return nil
			case 'a', 'c':
				active := board.Active()
				if len(active) == 0 {
					return nil
				}
				if r == 'a' {
					client.AcknowledgeWaiterCall(active[0].ID)
				} else {
					client.CompleteWaiterCall(active[0].ID)
				}
				return nil
			default:
				if status, ok := statusKeys[r]; ok {
					if id, ok := selectedOrder(); ok {
						client.EmitOrderStatusUpdate(id, status, userType)
					}
					return nil
				}
			}
			return event
		})

		client.Start()
		defer client.Close()

		return app.SetRoot(flex, true).SetFocus(orderTable).Run()
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashAdmin, "admin", false, "connect with an admin identity")
	dashboardCmd.Flags().BoolVar(&dashStaff, "staff", false, "connect with a staff identity")
}
