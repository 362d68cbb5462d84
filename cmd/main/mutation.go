package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"marketplace/storefront/internal/client"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// formFlags collects a multipart form from the command line
type formFlags struct {
	fields  []string
	image   string
	gallery []string
}

func (f *formFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.fields, "field", "f", nil, "form field as name=value, repeatable")
	flags.StringVar(&f.image, "image", "", "main image file")
	flags.StringArrayVar(&f.gallery, "gallery", nil, "gallery image file, repeatable")
}

func (f *formFlags) build() (*client.Form, error) {
	form := client.NewForm()
	for _, kv := range f.fields {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid field %q, expected name=value", kv)
		}
		form.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if f.image != "" {
		if err := addFile(form, "imagen", f.image); err != nil {
			return nil, err
		}
	}
	for _, path := range f.gallery {
		if err := addFile(form, "galeria[]", path); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func addFile(form *client.Form, field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	form.AddFile(field, filepath.Base(path), data)
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var form formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			body, err := form.build()
			if err != nil {
				return err
			}
			return a.report(sf.Mutations.Create(cmd.Context(), nil, body))
		},
	}
	form.register(cmd)
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var form formFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an item and verify the changes were saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			body, err := form.build()
			if err != nil {
				return err
			}
			if err := sf.Catalog.Load(cmd.Context()); err != nil {
				log.Warnf("⚠️ %v", err)
			}
			return a.report(sf.Mutations.Update(cmd.Context(), nil, args[0], body))
		},
	}
	form.register(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			return a.report(sf.Mutations.Delete(cmd.Context(), args[0]))
		},
	}
}
