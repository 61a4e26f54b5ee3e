package main

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vendora/backend/internal/domain"
)

var cmdMigrate = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()
		cmd.Println("migrations applied")
		return nil
	},
}

var cmdSeedBrands = &cobra.Command{
	Use:   "seed-brands [name...]",
	Short: "Add brands to the reference set (defaults to matching.brands)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		names := args
		if len(names) == 0 {
			names = a.Cfg.Matching.Brands
		}
		added, err := a.SeedBrands(cmd.Context(), names)
		if err != nil {
			return err
		}
		cmd.Printf("%d of %d brands added\n", added, len(names))
		return nil
	},
}

var flagSuggest struct {
	Category string
	Limit    int
}

var cmdSuggest = &cobra.Command{
	Use:   "suggest <product name>",
	Short: "Print catalog suggestions for a product name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		categoryID, err := parseOptionalUUID("category", flagSuggest.Category)
		if err != nil {
			return err
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Services.Suggestions.Suggest(cmd.Context(), strings.Join(args, " "), categoryID, flagSuggest.Limit)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var flagLink struct {
	User     string
	Category string
	Catalog  string
	Force    bool
	Price    string
}

var cmdLink = &cobra.Command{
	Use:   "link <product name>",
	Short: "Run the auto-link decision for a product on behalf of a user",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(flagLink.Price)
		if err != nil {
			return domain.NewValidationError("price", err.Error())
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		caller, err := a.ResolveUser(cmd.Context(), flagLink.User)
		if err != nil {
			return err
		}

		result, err := a.Services.AutoLink.AutoLink(cmd.Context(), caller, domain.AutoLinkRequest{
			ProductName:     strings.Join(args, " "),
			CategoryID:      flagLink.Category,
			CatalogID:       flagLink.Catalog,
			ForceNewCatalog: flagLink.Force,
			ProductData:     domain.ProductData{Price: price},
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var flagToken struct {
	User string
}

var cmdToken = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(flagToken.User)
		if err != nil {
			return domain.NewValidationError("user", "must be a UUID")
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.Services.Tokens.Issue(userID)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

var flagWatch struct {
	Category string
	Limit    int
}

var cmdWatch = &cobra.Command{
	Use:   "watch",
	Short: "Read product names from stdin line by line and show live suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		categoryID, err := parseOptionalUUID("category", flagWatch.Category)
		if err != nil {
			return err
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		suggest := func(ctx context.Context, query string) (*domain.SuggestResult, error) {
			return a.Services.Suggestions.Suggest(ctx, query, categoryID, flagWatch.Limit)
		}
		return runWatch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), suggest, a.Cfg.Matching.DebounceInterval)
	},
}

func init() {
	cmdSuggest.Flags().StringVar(&flagSuggest.Category, "category", "", "Restrict to a category id")
	cmdSuggest.Flags().IntVar(&flagSuggest.Limit, "limit", 0, "Maximum suggestions (0 uses matching.suggest_limit)")

	cmdLink.Flags().StringVar(&flagLink.User, "user", "", "Acting user id")
	cmdLink.Flags().StringVar(&flagLink.Category, "category", "", "Category id")
	cmdLink.Flags().StringVar(&flagLink.Catalog, "catalog", "", "Link to this catalog id instead of matching")
	cmdLink.Flags().BoolVar(&flagLink.Force, "force", false, "Always create a new catalog entry")
	cmdLink.Flags().StringVar(&flagLink.Price, "price", "0", "Offer price")
	_ = cmdLink.MarkFlagRequired("user")
	_ = cmdLink.MarkFlagRequired("category")

	cmdToken.Flags().StringVar(&flagToken.User, "user", "", "User id to issue the token for")
	_ = cmdToken.MarkFlagRequired("user")

	cmdWatch.Flags().StringVar(&flagWatch.Category, "category", "", "Restrict to a category id")
	cmdWatch.Flags().IntVar(&flagWatch.Limit, "limit", 0, "Maximum suggestions (0 uses matching.suggest_limit)")

	cmdMain.AddCommand(cmdMigrate, cmdSeedBrands, cmdSuggest, cmdLink, cmdToken, cmdWatch)
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a UUID")
	}
	return &id, nil
}
