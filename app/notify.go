package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/workflow"
)

// EnvNotifyPassword supplies the password of the notify command.
const EnvNotifyPassword = "PNE_NOTIFY_PASSWORD"

var errNotifyFailed = errors.New("notification failed")

type notifyFlags struct {
	url      string
	username string
	postID   uint64
	emails   string
	message  string
	saveOnly bool
	timeout  time.Duration
}

var nf notifyFlags

func init() { //nolint: gochecknoinits
	f := notifyCmd.Flags()
	f.StringVar(&nf.url, "url", "", "Base url of the web service (default webserver.url)")
	f.StringVarP(&nf.username, "user", "u", "admin", "Account used to log in")
	f.Uint64VarP(&nf.postID, "post", "p", 0, "ID of the post to announce")
	f.StringVarP(&nf.emails, "emails", "e", "", "Comma separated recipients")
	f.StringVarP(&nf.message, "message", "m", "", "Custom message of this update")
	f.BoolVar(&nf.saveOnly, "save-only", false, "Store recipients and message without sending")
	f.DurationVar(&nf.timeout, "timeout", time.Minute, "Overall timeout")

	_ = notifyCmd.MarkFlagRequired("post")

	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Save the notification settings of a post and send the email",
	Long: `Log in to a running web service, store recipients and custom message of
a post and send the notification email, exactly like the edit screen does.
The password is read from ` + EnvNotifyPassword + `.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		baseURL := nf.url
		if baseURL == "" {
			c, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			baseURL = c.Webserver.URL
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), nf.timeout)
		defer cancel()

		client := workflow.NewClient(baseURL)
		if err := client.Login(ctx, nf.username, os.Getenv(EnvNotifyPassword)); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := workflow.New(client, func(u workflow.Update) {
			if u.Message != "" {
				_, _ = fmt.Fprintf(out, "[%s] %s\n", u.State, u.Message)
			}
		})

		fields := workflow.Fields{
			PostID:            nf.postID,
			NotificationEmail: nf.emails,
			CustomMessage:     nf.message,
		}

		run := w.SaveAndSend
		if nf.saveOnly {
			run = w.Save
		}

		final, err := run(ctx, fields)
		if err != nil {
			return err
		}

		if !final.OK {
			return errNotifyFailed
		}

		return nil
	},
}
