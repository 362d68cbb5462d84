package main

import (
	"strconv"

	"marketplace/storefront/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var (
		category  string
		minPrice  float64
		maxPrice  float64
		minRating float64
		ownerID   string
		sortBy    string
		search    string
		page      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			key, err := domain.ParseSortKey(sortBy)
			if err != nil {
				return err
			}

			if err := sf.Catalog.Load(cmd.Context()); err != nil {
				log.Warnf("⚠️ %v", err)
			}

			var criteria domain.Criteria
			flags := cmd.Flags()
			if flags.Changed("category") {
				criteria.Category = &category
			}
			if flags.Changed("min-price") {
				criteria.MinPrice = &minPrice
			}
			if flags.Changed("max-price") {
				criteria.MaxPrice = &maxPrice
			}
			if flags.Changed("min-rating") {
				criteria.MinRating = &minRating
			}
			if flags.Changed("owner") {
				criteria.OwnerID = &ownerID
			}

			sf.Catalog.Filter(criteria)
			sf.Catalog.Sort(key)
			sf.Catalog.Search(search)
			return a.printer.Catalog(sf.Catalog.Paginate(page))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&category, "category", "", "category name or slug")
	flags.Float64Var(&minPrice, "min-price", 0, "minimum price")
	flags.Float64Var(&maxPrice, "max-price", 0, "maximum price")
	flags.Float64Var(&minRating, "min-rating", 0, "minimum rating")
	flags.StringVar(&ownerID, "owner", "", "owner id")
	flags.StringVar(&sortBy, "sort", "", "price-asc, price-desc, rating, newest, name-asc or name-desc")
	flags.StringVarP(&search, "search", "s", "", "text to search in name, description, brand and address")
	flags.IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			item, err := sf.Find(cmd.Context(), a.container.API, args[0])
			if err != nil {
				return err
			}
			return a.printer.Item(item)
		},
	}
}

func (a *app) mineCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the items you own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			items, accepted, err := sf.Owner.Load(cmd.Context())
			if err != nil {
				a.printer.Error(err.Error())
				return errReported
			}
			if !accepted {
				return nil
			}
			log.Debugf("Loaded %d own %s items", len(items), sf.Kind)
			return a.printer.Catalog(sf.Mine.Paginate(page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Add one unit of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := a.storefront()
			if err != nil {
				return err
			}
			if err := sf.Catalog.Load(cmd.Context()); err != nil {
				log.Warnf("⚠️ %v", err)
			}
			item, err := sf.Find(cmd.Context(), a.container.API, args[0])
			if err != nil {
				return err
			}
			if err := a.container.Cart.Add(cmd.Context(), item); err != nil {
				return err
			}
			a.printer.Success(item.Name + " added to cart (×" + strconv.Itoa(a.container.Cart.Quantity(item.ID)) + ")")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.container.Cart.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("removed from cart")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.printer.Cart(a.container.Cart.Lines())
		},
	})
	return cmd
}

func (a *app) wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage favorites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			favorited, err := a.container.Wishlist.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if favorited {
				a.printer.Success(args[0] + " added to wishlist")
			} else {
				a.printer.Success(args[0] + " removed from wishlist")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show favorite ids",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.printer.IDs("Wishlist", a.container.Wishlist.IDs())
			return nil
		},
	})
	return cmd
}
