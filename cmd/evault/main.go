package main

import (
	"fmt"
	"os"

	"evault-go/internal/app"
	"evault-go/internal/config"
	"evault-go/internal/evault"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an EVaultApp. The caller must
// defer a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.EVaultApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewEVaultApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

// withSession logs the user in for the duration of one invocation and
// logs out again on return. Sessions live only in process memory, so a
// token never outlasts the command that created it.
func withSession(a *app.EVaultApp, username string, fn func(token string) error) error {
	password, err := promptPassword("Password for " + username)
	if err != nil {
		return err
	}
	session, err := a.Login(username, password)
	if err != nil {
		return err
	}
	defer a.Logout(session.Token)
	return fn(session.Token)
}

var rootCmd = &cobra.Command{
	Use:   "evault",
	Short: "Tamper-evident vault for legal documents",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration, storage, and the system key",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.InitializeStorage(cfg); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Registry:  %s\n", cfg.Registry.Type)
		fmt.Printf("Vault:     %s (%s)\n", cfg.Vault.Name, cfg.Vault.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

// user command

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Register a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		password, err := promptPassword("Password for " + username)
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		a, err := newApp("Register")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Register(username, password)
		if err != nil {
			return err
		}
		fmt.Printf("Registered user %s\n", user.Username)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		oldPassword, err := promptPassword("Current password for " + username)
		if err != nil {
			return err
		}
		newPassword, err := promptPassword("New password")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm new password")
		if err != nil {
			return err
		}
		if newPassword != confirm {
			return fmt.Errorf("passwords do not match")
		}

		a, err := newApp("ChangePassword")
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.Login(username, oldPassword)
		if err != nil {
			return err
		}
		defer a.Logout(session.Token)

		if err := a.ChangePassword(session.Token, oldPassword, newPassword); err != nil {
			return err
		}
		fmt.Printf("Password changed for %s\n", username)
		return nil
	},
}

// doc command

var docUser string

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage documents",
}

var (
	uploadTitle       string
	uploadDescription string
	uploadContentType string
)

var docUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Encrypt and store a document, recording custody in the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Upload")
		if err != nil {
			return err
		}
		defer a.Close()

		return withSession(a, docUser, func(token string) error {
			doc, block, err := a.UploadFile(token, args[0], evault.UploadRequest{
				Title:       uploadTitle,
				Description: uploadDescription,
				ContentType: uploadContentType,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded document %s (block %d)\n", doc.ID, block.Index)
			fmt.Printf("Fingerprint: %s\n", doc.Fingerprint)
			return nil
		})
	},
}

var getOutput string

var docGetCmd = &cobra.Command{
	Use:   "get <doc-id>",
	Short: "Decrypt and retrieve a document's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Get")
		if err != nil {
			return err
		}
		defer a.Close()

		return withSession(a, docUser, func(token string) error {
			plaintext, err := a.GetDocumentContent(token, args[0])
			if err != nil {
				return err
			}
			if getOutput == "" || getOutput == "-" {
				_, err = os.Stdout.Write(plaintext)
				return err
			}
			return os.WriteFile(getOutput, plaintext, 0600)
		})
	},
}

var docTransferCmd = &cobra.Command{
	Use:   "transfer <doc-id> <recipient>",
	Short: "Transfer document ownership to another user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Transfer")
		if err != nil {
			return err
		}
		defer a.Close()

		return withSession(a, docUser, func(token string) error {
			block, err := a.TransferDocument(token, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Transferred %s to %s (block %d)\n", args[0], args[1], block.Index)
			return nil
		})
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents currently owned by the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		return withSession(a, docUser, func(token string) error {
			docs, err := a.ListOwnedDocuments(token)
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Printf("%s\t%s\t%s\n", d.ID, d.Title, d.ContentType)
			}
			return nil
		})
	},
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history <doc-id>",
	Short: "Show the full custody history of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		txs, err := a.GetHistory(args[0])
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.Recipient != "" {
				fmt.Printf("%s\t%s -> %s\t%s\n", tx.Kind, tx.Actor, tx.Recipient, tx.Fingerprint)
			} else {
				fmt.Printf("%s\t%s\t%s\n", tx.Kind, tx.Actor, tx.Fingerprint)
			}
		}
		return nil
	},
}

// txlog command

var txlogCmd = &cobra.Command{
	Use:   "txlog",
	Short: "Show every custody event involving the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("TxLog")
		if err != nil {
			return err
		}
		defer a.Close()

		return withSession(a, docUser, func(token string) error {
			txs, err := a.GetUserTransactions(token)
			if err != nil {
				return err
			}
			for _, tx := range txs {
				fmt.Printf("%s\t%s\t%s\n", tx.Kind, tx.DocumentID, tx.Fingerprint)
			}
			return nil
		})
	},
}

// verify command

var verifyCmd = &cobra.Command{
	Use:   "verify [doc-id...]",
	Short: "Verify ledger integrity and, optionally, document content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Verify")
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.VerifyChain()
		fmt.Println(report)
		if !report.Ok() {
			return fmt.Errorf("ledger verification failed")
		}

		for _, id := range args {
			if err := a.VerifyDocument(id); err != nil {
				return fmt.Errorf("document %s failed verification: %w", id, err)
			}
			fmt.Printf("document %s ok\n", id)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configListCmd)
	userCmd.AddCommand(userRegisterCmd, userPasswdCmd)

	docUploadCmd.Flags().StringVar(&uploadTitle, "title", "", "document title (required)")
	docUploadCmd.Flags().StringVar(&uploadDescription, "description", "", "document description")
	docUploadCmd.Flags().StringVar(&uploadContentType, "content-type", "application/octet-stream", "document content type")
	docUploadCmd.MarkFlagRequired("title")

	docGetCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file (default: stdout)")

	for _, c := range []*cobra.Command{docUploadCmd, docGetCmd, docTransferCmd, docListCmd, txlogCmd} {
		c.Flags().StringVar(&docUser, "user", "", "username to act as (required)")
		c.MarkFlagRequired("user")
	}

	docCmd.AddCommand(docUploadCmd, docGetCmd, docTransferCmd, docListCmd)
	rootCmd.AddCommand(configCmd, userCmd, docCmd, historyCmd, txlogCmd, verifyCmd)
}
