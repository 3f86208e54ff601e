/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/lastfmfetch"
	"github.com/ademuri/listen-trends/internal/store"
)

var authenticateCmd = &cobra.Command{
	Use:     "authenticate <email> --user=foo",
	Short:   "Gets a session key for the given user.",
	Long:    `This is needed if the user has marked their data as private. The authorization link is emailed to <email>.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireFlags("api_key", "secret", "user", "from", "sendgrid_api_key"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getSessionKey(viper.GetString("database"), viper.GetString("from"), args[0], os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(authenticateCmd)

	var from string
	authenticateCmd.Flags().StringVar(&from, "from", "", "From email address")
	viper.BindPFlag("from", authenticateCmd.Flags().Lookup("from"))

	var sendgridKey string
	authenticateCmd.Flags().StringVar(&sendgridKey, "sendgrid_api_key", "", "SendGrid API key used to send the authorization email")
	viper.BindPFlag("sendgrid_api_key", authenticateCmd.Flags().Lookup("sendgrid_api_key"))
}

// authEmail builds the message carrying the authorization link.
func authEmail(fromAddress, toAddress, authUrl string) *mail.SGMailV3 {
	from := mail.NewEmail("listen-trends", fromAddress)
	subject := "Authenticate listen-trends"
	to := mail.NewEmail(toAddress, toAddress)
	bodyText := "Click here to authenticate: " + authUrl
	return mail.NewSingleEmail(from, subject, to, bodyText, bodyText)
}

func getSessionKey(dbPath string, fromAddress string, toAddress string, confirm io.Reader) error {
	user := strings.ToLower(viper.GetString("user"))
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.CreateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	existing, err := db.GetSessionKey(user)
	if err != nil {
		return fmt.Errorf("Getting existing session_key: %w", err)
	}
	if existing != "" {
		return fmt.Errorf("User %s already has session key", user)
	}

	client := lastfmfetch.New(viper.GetString("api_key"), viper.GetString("secret"), logger)
	api := client.Api()

	authToken, err := api.GetToken()
	if err != nil {
		return fmt.Errorf("Getting token: %w", err)
	}
	authUrl := api.GetAuthTokenUrl(authToken)

	sender := sendgrid.NewSendClient(viper.GetString("sendgrid_api_key"))
	response, err := sender.Send(authEmail(fromAddress, toAddress, authUrl))
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendEmail: status %d: %s", response.StatusCode, response.Body)
	}
	logger.Info("sent authentication email", zap.String("to", toAddress))

	fmt.Print("Sent authentication email, press enter once the link has been approved")
	bufio.NewReader(confirm).ReadString('\n')

	if err := api.LoginWithToken(authToken); err != nil {
		return fmt.Errorf("Logging in: %w", err)
	}
	sessionKey := api.GetSessionKey()

	if err := db.SetSessionKey(user, sessionKey); err != nil {
		return fmt.Errorf("Updating db with session key: %w", err)
	}

	fmt.Printf("Successfully authenticated %q\n", user)
	return nil
}
