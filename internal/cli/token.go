package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	Employee string
	Admin    bool
	TTL      time.Duration
}

// NewTokenCommand creates the token command, which mints API access tokens with the
// configured secret.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Mint an API access token",
		Example: `  shiftctl token --employee ana --admin`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return NewExitError(ExitCommandError, "JWT_SECRET_KEY is not set")
			}
			ttl := cfg.JWT.AccessExpiration
			if opts.TTL > 0 {
				ttl = opts.TTL
			}
			token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, ttl).GenerateAccessToken(opts.Employee, opts.Admin)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to sign token", err)
			}
			return opts.formatter(cmd).Success(map[string]interface{}{
				"access_token": token,
				"expires_at":   expiresAt,
			}, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Employee, "employee", "", "employee ID the token acts as")
	cmd.Flags().BoolVar(&opts.Admin, "admin", false, "grant admin rights")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default: JWT_ACCESS_EXPIRATION_TIME)")
	_ = cmd.MarkFlagRequired("employee")

	return cmd
}
