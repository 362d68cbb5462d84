package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/container"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/mutation"
	"marketplace/storefront/internal/ui"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errReported marks a failure already shown to the user
var errReported = errors.New("operation failed")

type app struct {
	kind string
	yes  bool

	container *container.Container
	printer   *ui.Printer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:                "storefront",
		Short:              "Browse and manage marketplace products and services",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.PersistentFlags().StringVarP(&a.kind, "kind", "k", string(domain.ItemKindProduct), "item kind: product or service")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to confirmation prompts")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.cartCmd(),
		a.wishlistCmd(),
		a.mineCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a.printer = ui.NewPrinter(cmd.OutOrStdout())
	confirmer := mutation.ConfirmFunc(func(_ context.Context, prompt string) bool {
		return a.confirm(cmd, prompt)
	})

	a.container, err = container.New(cmd.Context(), cfg, confirmer)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	return a.container.LoadState(cmd.Context())
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.container == nil {
		return nil
	}
	return a.container.Close()
}

func (a *app) storefront() (*container.Storefront, error) {
	return a.container.Storefront(domain.ItemKind(a.kind))
}

// confirm asks on stdin unless --yes was given; anything but y/yes declines
func (a *app) confirm(cmd *cobra.Command, prompt string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// report toasts a result and turns failure into a non-zero exit
func (a *app) report(r domain.Result) error {
	a.printer.Result(r)
	if !r.Success {
		return errReported
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			log.Errorf("❌ %v", err)
		}
		os.Exit(1)
	}
}
