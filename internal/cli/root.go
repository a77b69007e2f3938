// Package cli implements shopctl, the command line admin for the catalog API.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simp-lee/shopbase/internal/admin"
	"github.com/simp-lee/shopbase/internal/client"
	"github.com/simp-lee/shopbase/internal/config"
	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/middleware"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	server     string
	token      string
	configPath string
	tenant     string
	role       string
	yes        bool
	verbose    bool

	in         io.Reader
	isTerminal func() bool
	api        *client.Client
}

// NewRootCmd builds the shopctl command tree reading answers from in.
func NewRootCmd(in io.Reader) *cobra.Command {
	g := &globals{in: in, isTerminal: func() bool { return false }}
	if f, ok := in.(*os.File); ok {
		g.isTerminal = func() bool { return term.IsTerminal(int(f.Fd())) }
	}
	return newRoot(g)
}

func newRoot(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Administer the shopbase catalog",
		Long:          "shopctl lists, inspects and manages categories, tags and products through the shopbase HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", envOr("SHOPCTL_SERVER", "http://localhost:8080"), "base URL of the shopbase server")
	pf.StringVar(&g.token, "token", os.Getenv("SHOPCTL_TOKEN"), "bearer token sent with every request")
	pf.StringVar(&g.configPath, "config", "", "server config file; when auth is enabled a token is minted from its secret")
	pf.StringVar(&g.tenant, "tenant", "", "tenant of the minted token (defaults to auth.default_tenant)")
	pf.StringVar(&g.role, "role", domain.RoleAdmin, "role of the minted token")
	pf.BoolVarP(&g.yes, "yes", "y", false, "answer yes to every confirmation")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newResourceCmd(g, categories),
		newResourceCmd(g, tags),
		newResourceCmd(g, products),
	)
	return root
}

// Execute runs shopctl against the process arguments.
func Execute() error {
	return NewRootCmd(os.Stdin).Execute()
}

func (g *globals) client(errOut io.Writer) (*client.Client, error) {
	if g.api != nil {
		return g.api, nil
	}
	token := g.token
	if token == "" && g.configPath != "" {
		minted, err := g.mintToken()
		if err != nil {
			return nil, err
		}
		token = minted
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	api, err := client.New(g.server, client.WithToken(token), client.WithLogger(log))
	if err != nil {
		return nil, err
	}
	g.api = api
	return api, nil
}

func (g *globals) mintToken() (string, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if !cfg.Auth.Enabled {
		return "", nil
	}
	tenant := g.tenant
	if tenant == "" {
		tenant = cfg.Auth.DefaultTenant
	}
	return middleware.IssueToken(cfg.Auth.JWTSecret, domain.Principal{
		Subject:  "shopctl",
		TenantID: tenant,
		Roles:    []string{g.role},
	}, jwt.RegisteredClaims{
		Issuer:    cfg.Auth.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
}

func (g *globals) confirmer(out io.Writer) admin.Confirmer {
	return &admin.TerminalConfirmer{In: g.in, Out: out, AssumeYes: g.yes, IsTerminal: g.isTerminal}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
