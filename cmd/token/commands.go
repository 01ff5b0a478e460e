package token

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ZhaoShanGeng/antigravity2api/lib/ident"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
	"github.com/spf13/cobra"
)

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all token records with their derived ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := localStore.GetSalt()
			if err != nil {
				return err
			}
			records, err := localStore.ReadAll()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no records")
				return nil
			}
			for _, r := range records {
				disabled, _ := r["disabled"].(bool)
				fmt.Printf("id=%s, disabled=%v\n", ident.AccountID(salt, r.Key()), disabled)
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Prints the full record for a derived id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := localStore.GetSalt()
			if err != nil {
				return err
			}
			records, err := localStore.ReadAll()
			if err != nil {
				return err
			}
			for _, r := range records {
				if ident.AccountID(salt, r.Key()) == args[0] {
					out, err := json.MarshalIndent(r, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				}
			}
			return fmt.Errorf("no record with id %s", args[0])
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [file]",
		Short: "Replaces all records with the JSON array read from a file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[0])
			if err != nil {
				return err
			}
			if err := localStore.WriteAll(records); err != nil {
				return err
			}
			fmt.Printf("wrote %d records\n", len(records))
			return nil
		},
	}
	mergeCmd = &cobra.Command{
		Use:   "merge [file]",
		Short: "Merges the JSON array read from a file ('-' for stdin) into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[0])
			if err != nil {
				return err
			}
			if err := localStore.Merge(records, nil); err != nil {
				return err
			}
			fmt.Printf("merged %d records\n", len(records))
			return nil
		},
	}
	disableCmd = &cobra.Command{
		Use:   "disable [id]",
		Short: "Marks the record with the derived id as disabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := localStore.GetSalt()
			if err != nil {
				return err
			}
			records, err := localStore.ReadAll()
			if err != nil {
				return err
			}
			for _, r := range records {
				if ident.AccountID(salt, r.Key()) == args[0] {
					update := store.Record{
						store.KeyField: r.Key(),
						"disabled":     true,
					}
					if err := localStore.Merge(nil, update); err != nil {
						return err
					}
					fmt.Println("disabled successfully")
					return nil
				}
			}
			return fmt.Errorf("no record with id %s", args[0])
		},
	}
	saltCmd = &cobra.Command{
		Use:   "salt",
		Short: "Prints the store salt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := localStore.GetSalt()
			if err != nil {
				return err
			}
			fmt.Println(salt)
			return nil
		},
	}
)

// readRecords reads a JSON record array from a file or stdin
func readRecords(path string) ([]store.Record, error) {
	var data []byte
	var err error

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var records []store.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("input must be a JSON array of records: %w", err)
	}
	return records, nil
}
