package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/service"
)

type services struct {
	notify    service.NotifyService
	integrity service.IntegrityService
}

type servicesLoader func(ctx context.Context) (services, func() error, error)

func newRootCmd(load servicesLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "vettedctl",
		Short:         "Inspect and deliver submission notifications to vetted",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPayloadCmd(load),
		newNotifyCmd(load),
		newIntegrityCmd(load),
	)
	return root
}

func newPayloadCmd(load servicesLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "payload <submission-id>",
		Short: "Print the webhook payload a submission would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, load, func(svc services) error {
				preview, err := svc.notify.Preview(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, warning := range preview.Warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
				}
				return printJSON(cmd.OutOrStdout(), preview.Payload)
			})
		},
	}
}

func newNotifyCmd(load servicesLoader) *cobra.Command {
	var req dto.NotifyRequest

	cmd := &cobra.Command{
		Use:   "notify <submission-id>",
		Short: "Deliver a submission to the vetted webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, load, func(svc services) error {
				response, err := svc.notify.Notify(cmd.Context(), args[0], req)
				if err != nil {
					if errors.Is(err, service.ErrDeliveryFailed) {
						_ = printJSON(cmd.OutOrStdout(), response)
					}
					if errors.Is(err, service.ErrDuplicateDelivery) {
						return fmt.Errorf("%w (use --force to resend)", err)
					}
					return err
				}
				return printJSON(cmd.OutOrStdout(), response)
			})
		},
	}

	cmd.Flags().BoolVar(&req.Force, "force", false, "send even if the submission was notified recently")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "build and validate the payload without sending it")
	return cmd
}

func newIntegrityCmd(load servicesLoader) *cobra.Command {
	var filter dto.IntegrityFilter

	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Report submissions and opportunities with dangling references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, load, func(svc services) error {
				report, err := svc.integrity.Report(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "only scan submissions in this status (in_progress or submitted)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of submissions to scan")
	return cmd
}

func withServices(cmd *cobra.Command, load servicesLoader, fn func(services) error) error {
	svc, closeFn, err := load(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if closeFn != nil {
			_ = closeFn()
		}
	}()
	return fn(svc)
}

func printJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
