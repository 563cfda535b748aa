package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hesham174/telegram-video-downloader-bot/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "videobot",
		Short: "Telegram bot that downloads videos from URLs and sends them back",
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot",
			Run: func(_ *cobra.Command, _ []string) {
				runServe()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(_ *cobra.Command, _ []string) {
				fmt.Println(version.Version)
			},
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
