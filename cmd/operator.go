package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

var operatorFlags struct {
	id       string
	name     string
	email    string
	role     string
	inactive bool
}

var operatorCmd = &cobra.Command{
	Use:   "seed-operator",
	Short: "Create or update an operator record",
	Long:  "Bootstraps operator accounts. In production these come from the portal's user system; this command seeds them for development and testing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		id := operatorFlags.id
		if id == "" {
			id = uuid.New().String()
		}

		op := model.Operator{
			ID:     id,
			Name:   operatorFlags.name,
			Email:  operatorFlags.email,
			Role:   model.Role(operatorFlags.role),
			Active: !operatorFlags.inactive,
		}
		if err := st.CreateOperator(ctx, op); err != nil {
			return eris.Wrap(err, "seed operator")
		}

		fmt.Printf("operator %s (%s, role %s)\n", op.ID, op.Name, op.Role)
		if !op.Role.CanGenerateLeads() {
			fmt.Println("note: this role cannot run lead generation")
		}
		return nil
	},
}

func init() {
	operatorCmd.Flags().StringVar(&operatorFlags.id, "id", "", "operator id (default: new UUID)")
	operatorCmd.Flags().StringVar(&operatorFlags.name, "name", "", "display name (required)")
	operatorCmd.Flags().StringVar(&operatorFlags.email, "email", "", "email (required)")
	operatorCmd.Flags().StringVar(&operatorFlags.role, "role", string(model.RoleCommercial), "role")
	operatorCmd.Flags().BoolVar(&operatorFlags.inactive, "inactive", false, "create as inactive")
	_ = operatorCmd.MarkFlagRequired("name")
	_ = operatorCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(operatorCmd)
}
