package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openagv/fleetkernel/app"
	"github.com/openagv/fleetkernel/config"
	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/infra/logger"
)

var (
	orderDestinations []string
	orderOperations   []string
	orderVehicle      string
	orderDispensable  bool
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Inject a transport order and run the kernel",
	RunE:  runOrder,
}

func init() {
	orderCmd.Flags().StringSliceVarP(&orderDestinations, "destination", "d", nil, "destination point or location, repeatable")
	orderCmd.Flags().StringSliceVarP(&orderOperations, "operation", "o", nil, "operation per destination, defaults to NOP")
	orderCmd.Flags().StringVar(&orderVehicle, "vehicle", "", "restrict the order to this vehicle")
	orderCmd.Flags().BoolVar(&orderDispensable, "dispensable", false, "allow the order to be withdrawn for better work")
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	if len(orderDestinations) == 0 {
		return fmt.Errorf("at least one --destination is required")
	}
	if len(orderOperations) > len(orderDestinations) {
		return fmt.Errorf("more operations than destinations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("order-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	legs := make([]model.DriveOrder, len(orderDestinations))
	for i, dest := range orderDestinations {
		op := model.OpNop
		if i < len(orderOperations) {
			op = orderOperations[i]
		}
		legs[i] = model.DriveOrder{Destination: dest, Operation: op}
	}
	order := &model.TransportOrder{
		Name:            fmt.Sprintf("TOrder-%s", uuid.NewString()),
		DriveOrders:     legs,
		State:           model.OrderDispatchable,
		IntendedVehicle: orderVehicle,
		Dispensable:     orderDispensable,
	}
	if err := svc.Registry.CreateOrder(order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if err := svc.Engine.DispatchOrder(order); err != nil {
		return fmt.Errorf("dispatch order: %w", err)
	}
	logg.Infof("injected %s with %d drive orders", order.Name, len(legs))
	return svc.Run(ctx)
}
