package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	client "github.com/voxstory/voxstory-client"
	"github.com/voxstory/voxstory-client/internal/config"
)

var (
	settings config.Settings
	env      string
	baseURL  string
	dataDir  string
	debug    bool
)

const opTimeout = 15 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	// A .env file is optional convenience for local development. It has to
	// be loaded before the environment is read for flag defaults.
	_ = godotenv.Load()

	var loadErr error
	settings, loadErr = config.Load()

	rootCmd := &cobra.Command{
		Use:   "voxstory",
		Short: "VoxStory CLI for voice cloning and story narration",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLogger()
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				os.Setenv("VOXSTORY_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				config.SetLogLevel(settings.LogLevel)
			}
			if loadErr != nil {
				log.Warn().Err(loadErr).Msg("environment settings invalid, using defaults")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&env, "env", settings.Env, "API environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override the API base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", settings.DataDir, "Local data directory")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newStoriesCmd())
	rootCmd.AddCommand(newCloneCmd())
	rootCmd.AddCommand(newNarrateCmd())
	rootCmd.AddCommand(newDeleteVoiceCmd())
	rootCmd.AddCommand(newDrainCmd())

	return rootCmd
}

// newClient wires an SDK client from the resolved settings, with the
// persistent flags layered on top. The caller owns Close.
func newClient() (*client.Client, error) {
	s := settings
	if env != s.Env {
		s.Env = env
		s.BaseURL = config.BaseURLFor(env)
	}
	if baseURL != "" {
		s.BaseURL = baseURL
	}
	return client.New(
		client.WithEnvironment(s.Env),
		client.WithBaseURL(s.BaseURL),
		client.WithDataDir(dataDir),
		client.WithHTTPTimeout(s.HTTPTimeout),
	)
}

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			if err := c.Login(ctx, email, password); err != nil {
				log.Error().Err(err).Str("email", email).Msg("login failed")
				return err
			}
			fmt.Printf("Signed in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			if err := c.Register(ctx, client.RegisterRequest{Email: email, Password: password, Name: name}); err != nil {
				log.Error().Err(err).Str("email", email).Msg("registration failed")
				return err
			}
			fmt.Printf("Account created for %s; check your inbox to confirm\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (optional)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile and current voice",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			p, err := c.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> confirmed=%v\n", p.Name, p.Email, p.Confirmed)

			voiceID, err := c.CurrentVoice(ctx)
			if err == nil && voiceID != "" {
				fmt.Printf("Current voice: %s\n", voiceID)
			} else {
				fmt.Println("No cloned voice on this device")
			}
			return nil
		},
	}
}

func newStoriesCmd() *cobra.Command {
	var refresh, localOnly bool

	cmd := &cobra.Command{
		Use:   "stories",
		Short: "List the story catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			var stories []client.Story
			if localOnly {
				stories, err = c.StoriesWithLocalAudio(ctx)
				if err != nil {
					return err
				}
			} else {
				res, err := c.Stories(ctx, refresh)
				if err != nil {
					return err
				}
				if res.FromCache {
					log.Debug().Msg("serving cached catalog")
				}
				stories = res.Stories
			}

			for _, s := range stories {
				marker := " "
				if s.HasLocalAudio {
					marker = "*"
				}
				fmt.Printf("%s %-12s %s (%s, %ds)\n", marker, s.ID, s.Title, s.Author, s.DurationSeconds)
			}
			fmt.Printf("%d stories (* = downloaded)\n", len(stories))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a catalog refresh")
	cmd.Flags().BoolVar(&localOnly, "local", false, "Only stories with downloaded narration")

	return cmd
}

func newCloneCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "clone <sample-file>",
		Short: "Clone a voice from a recorded sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			// Cloning uploads a sample and waits on server-side processing.
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			voiceID, err := c.CloneVoice(ctx, args[0], name, progressPrinter())
			if err != nil {
				log.Error().Err(err).Str("sample", args[0]).Msg("clone failed")
				return err
			}
			fmt.Printf("\nVoice cloned: %s\n", voiceID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Voice display name (optional)")

	return cmd
}

func newNarrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "narrate <story-id>",
		Short: "Generate and download a narration in the current voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			// Generation polls for up to two minutes plus the download.
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			start := time.Now()
			res, err := c.Narrate(ctx, args[0], progressPrinter())
			if err != nil {
				log.Error().Err(err).Str("story", args[0]).Msg("narration failed")
				return err
			}
			if res.FromCache {
				fmt.Printf("\nAlready downloaded: %s\n", res.URI)
			} else {
				fmt.Printf("\nNarration ready in %s: %s\n", time.Since(start).Round(time.Second), res.URI)
			}
			return nil
		},
	}
}

func newDeleteVoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-voice",
		Short: "Delete the current voice and its downloaded audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			res, err := c.DeleteVoice(ctx)
			if err != nil {
				return err
			}
			if res.Queued {
				fmt.Println("Voice removed locally; server deletion queued for next connection")
			} else {
				fmt.Println("Voice deleted")
			}
			return nil
		},
	}
}

func newDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay queued offline operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			res, err := c.DrainQueue(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d, discarded %d, remaining %d\n", res.Processed, res.Discarded, res.Remaining)
			return nil
		},
	}
}

// progressPrinter renders stage transitions and fractional progress on one
// line.
func progressPrinter() client.ProgressFunc {
	var lastStage client.Stage
	return func(p client.Progress) {
		if p.Stage != lastStage {
			lastStage = p.Stage
			fmt.Printf("\n%-12s", p.Stage)
		}
		fmt.Printf("\r%-12s %3.0f%%", p.Stage, p.Fraction*100)
	}
}
