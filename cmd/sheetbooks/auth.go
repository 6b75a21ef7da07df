package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/sheetbooks/internal/cli"
	"github.com/Veraticus/sheetbooks/internal/config"
	"github.com/Veraticus/sheetbooks/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Sheets",
		Long: `Runs the OAuth2 consent flow in your browser and stores the resulting
refresh token in the config file. Not needed when a service account is
configured.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret")
	cmd.Flags().String("listen", "127.0.0.1:8085", "loopback address for the OAuth2 callback")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret")
	}

	listen, _ := cmd.Flags().GetString("listen")
	tokenFile := filepath.Join(config.ConfigDir(), "sheets-token.json")
	slog.Info("Starting Google Sheets authorization", "token_file", tokenFile)

	token, err := sheets.Authorize(ctx, sheets.AuthorizeOptions{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ListenAddr:   listen,
		TokenFile:    tokenFile,
		OpenURL: func(url string) {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Opening your browser. If it does not open, visit:"))
			fmt.Fprintln(cmd.OutOrStdout(), url)
			openBrowser(url)
		},
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	viper.Set("sheets.client_id", clientID)
	viper.Set("sheets.client_secret", clientSecret)
	viper.Set("sheets.refresh_token", token.RefreshToken)

	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Could not save the refresh token. Add it to config.yaml manually:"))
		fmt.Fprintf(cmd.OutOrStdout(), "sheets:\n  refresh_token: %q\n", token.RefreshToken)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Authorization successful. Google Sheets is ready to use."))
	return nil
}
