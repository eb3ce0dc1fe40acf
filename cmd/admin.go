package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"session-todos/internal/models"
	"session-todos/internal/repository"
	"session-todos/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", db.Dialect.Name)
		return nil
	},
}

var (
	seedOwner string
	seedCount int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add sample todos for an owner",
	Long: `Seed inserts --count numbered todos for the owner id given by --owner.
Every third item is marked completed.

Example:
  session-todos seed --owner 1 --count 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		todos := service.NewTodoService(repository.NewTodoRepository(db), nil)
		done := true
		start := time.Now()
		for i := 1; i <= seedCount; i++ {
			req := models.CreateTodoRequest{Title: fmt.Sprintf("Todo %d", i)}
			if i%3 == 0 {
				req.Completed = &done
			}
			if _, err := todos.Create(ctx, seedOwner, req); err != nil {
				return fmt.Errorf("insert todo %d: %w", i, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\rInserted %d / %d", i, seedCount)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nDone: %d todos in %v\n", seedCount, time.Since(start))
		return nil
	},
}

var (
	newUsername string
	newPassword string
)

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create a login account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := service.NewUserService(repository.NewUserRepository(db)).Register(ctx, newUsername, newPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (owner id %s)\n", id.Username, id.ID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "owner id to seed todos for (required)")
	seedCmd.Flags().IntVar(&seedCount, "count", 20, "number of todos to insert")
	_ = seedCmd.MarkFlagRequired("owner")

	addUserCmd.Flags().StringVar(&newUsername, "username", "", "login name (required)")
	addUserCmd.Flags().StringVar(&newPassword, "password", "", "password (required)")
	_ = addUserCmd.MarkFlagRequired("username")
	_ = addUserCmd.MarkFlagRequired("password")
}
