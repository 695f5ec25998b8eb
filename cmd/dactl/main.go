package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/edvin/directadmin/internal/cli"
	"github.com/edvin/directadmin/internal/config"
	"github.com/edvin/directadmin/internal/logging"
	"github.com/edvin/directadmin/pkg/directadmin"
	"github.com/edvin/directadmin/pkg/directadmin/api"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "whoami":
		cmdWhoami(ctx, args)
	case "users":
		cmdUsers(ctx, args)
	case "show":
		cmdShow(ctx, args)
	case "create-user":
		cmdCreateUser(ctx, args)
	case "suspend":
		cmdSuspend(ctx, args, true)
	case "unsuspend":
		cmdSuspend(ctx, args, false)
	case "delete":
		cmdDelete(ctx, args)
	case "modify":
		cmdModify(ctx, args)
	case "packages":
		cmdPackages(ctx, args)
	case "package":
		cmdChangePackage(ctx, args)
	case "domains":
		cmdDomains(ctx, args)
	case "domain-add":
		cmdDomainAdd(ctx, args)
	case "domain-rm":
		cmdDomainRemove(ctx, args)
	case "domain-show":
		cmdDomainShow(ctx, args)
	case "subdomains":
		cmdSubdomains(ctx, args)
	case "databases":
		cmdDatabases(ctx, args)
	case "database-add":
		cmdDatabaseAdd(ctx, args)
	case "database-rm":
		cmdDatabaseRemove(ctx, args)
	case "login-keys":
		cmdLoginKeys(ctx, args)
	case "profile-add":
		cmdProfileAdd(args)
	case "profiles":
		cmdProfiles(args)
	case "use":
		cmdUse(args)
	case "exporter":
		cmdExporter(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// ---------- Connection ----------

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	profile := fs.String("profile", "", "Profile to use (default: active profile, then environment)")
	return fs, profile
}

// loadConfig reads the environment and overlays the named or active profile.
func loadConfig(ctx context.Context, profileName string) *config.Config {
	cfg, err := config.Load(ctx)
	if err != nil {
		fatal(err)
	}

	name := profileName
	if name == "" {
		name, _ = cli.GetActive()
	}
	if name != "" {
		p, err := cli.LoadProfile(name)
		if err != nil {
			fatal(err)
		}
		if err := p.Apply(cfg); err != nil {
			fatal(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	return cfg
}

// open connects to the panel and detects the privilege level of the
// configured identity.
func open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...api.Option) *directadmin.Context {
	tlsConfig, err := cfg.TLS()
	if err != nil {
		fatal(err)
	}
	if tlsConfig != nil {
		opts = append(opts, api.WithTLSConfig(tlsConfig))
	}
	opts = append(opts, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))

	client, err := api.NewClient(cfg.URL, cfg.Username, cfg.Password, opts...)
	if err != nil {
		fatal(err)
	}

	var conn api.Connection = client
	if cfg.LoginAs != "" {
		if conn, err = client.LoginAs(cfg.LoginAs); err != nil {
			fatal(err)
		}
	}

	dac, err := directadmin.Open(ctx, conn)
	if err != nil {
		fatal(err)
	}
	logger.Debug().Str("level", dac.Level().String()).Msg("connected")
	return dac
}

func connect(ctx context.Context, profileName string) *directadmin.Context {
	cfg := loadConfig(ctx, profileName)
	return open(ctx, cfg, logging.NewConsoleLogger(cfg))
}

// account looks up an account visible to dac or exits.
func account(ctx context.Context, dac *directadmin.Context, name string) *directadmin.Account {
	a, err := dac.User(ctx, name)
	if err != nil {
		fatal(err)
	}
	if a == nil {
		fatal(fmt.Errorf("account %q not found or not visible to %s", name, dac.Username()))
	}
	return a
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var remote *directadmin.RemoteAPIError
	if errors.As(err, &remote) && remote.Details != "" {
		fmt.Fprintf(os.Stderr, "Details: %s\n", remote.Details)
	}
	if errors.Is(err, directadmin.ErrPrivilege) {
		os.Exit(2)
	}
	os.Exit(1)
}

func requireArgs(fs *flag.FlagSet, n int, usage string) {
	if fs.NArg() < n {
		fmt.Fprintln(os.Stderr, "Usage: dactl "+usage)
		os.Exit(1)
	}
}

// ---------- Accounts ----------

func cmdWhoami(ctx context.Context, args []string) {
	fs, profile := newFlagSet("whoami")
	fs.Parse(args)

	dac := connect(ctx, *profile)
	self, err := dac.Self(ctx)
	if err != nil {
		fatal(err)
	}
	email, _ := self.Email(ctx)
	domain, _ := self.DefaultDomain(ctx)

	fmt.Printf("User:    %s\n", self.Name())
	fmt.Printf("Level:   %s\n", dac.Level())
	fmt.Printf("Email:   %s\n", email)
	fmt.Printf("Domain:  %s\n", domain)
}

func cmdUsers(ctx context.Context, args []string) {
	fs, profile := newFlagSet("users")
	all := fs.Bool("all", false, "List every account on the server (admin)")
	resellers := fs.Bool("resellers", false, "List resellers (admin)")
	admins := fs.Bool("admins", false, "List admins (admin)")
	fs.Parse(args)

	dac := connect(ctx, *profile)

	var names []string
	var err error
	switch {
	case *all:
		names, err = dac.AllUsers(ctx)
	case *resellers:
		names, err = dac.Resellers(ctx)
	case *admins:
		names, err = dac.Admins(ctx)
	default:
		names, err = dac.Users(ctx)
	}
	if err != nil {
		fatal(err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdShow(ctx context.Context, args []string) {
	fs, profile := newFlagSet("show")
	fs.Parse(args)
	requireArgs(fs, 1, "show <user>")

	dac := connect(ctx, *profile)
	a := account(ctx, dac, fs.Arg(0))

	email, _ := a.Email(ctx)
	domain, _ := a.DefaultDomain(ctx)
	pkg, _ := a.PackageName(ctx)
	creator, _ := a.Creator(ctx)
	suspended, err := a.Suspended(ctx)
	if err != nil {
		fatal(err)
	}
	bw, err := a.Bandwidth(ctx)
	if err != nil {
		fatal(err)
	}
	disk, err := a.DiskQuota(ctx)
	if err != nil {
		fatal(err)
	}
	bwUsed, err := a.BandwidthUsage(ctx)
	if err != nil {
		fatal(err)
	}
	diskUsed, err := a.DiskUsage(ctx)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Name:       %s\n", a.Name())
	fmt.Printf("Level:      %s\n", a.Level())
	fmt.Printf("Email:      %s\n", email)
	fmt.Printf("Domain:     %s\n", domain)
	fmt.Printf("Package:    %s\n", pkg)
	fmt.Printf("Creator:    %s\n", creator)
	fmt.Printf("Suspended:  %t\n", suspended)
	fmt.Printf("Bandwidth:  %g / %s MB\n", bwUsed, bw)
	fmt.Printf("Disk:       %g / %s MB\n", diskUsed, disk)
}

func cmdCreateUser(ctx context.Context, args []string) {
	fs, profile := newFlagSet("create-user")
	accountType := fs.String("type", "user", "Account type: user, reseller or admin")
	username := fs.String("username", "", "Login name (required)")
	email := fs.String("email", "", "Contact email (required)")
	password := fs.String("password", os.Getenv("DA_NEW_PASSWORD"), "Password (default: $DA_NEW_PASSWORD)")
	domain := fs.String("domain", "", "Default domain (required for users and resellers)")
	pkg := fs.String("package", "", "Package to assign")
	ip := fs.String("ip", "", "IP address to assign")
	notify := fs.Bool("notify", false, "Email the account details to the new owner")
	fs.Parse(args)

	level, err := directadmin.ParseLevel(*accountType)
	if err != nil {
		fatal(err)
	}

	dac := connect(ctx, *profile)
	a, err := dac.CreateAccount(ctx, directadmin.AccountParams{
		Type:     level,
		Username: *username,
		Email:    *email,
		Password: *password,
		Domain:   *domain,
		Package:  *pkg,
		IP:       *ip,
		Notify:   *notify,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created %s %q\n", a.Level(), a.Name())
}

func cmdSuspend(ctx context.Context, args []string, suspend bool) {
	name := "unsuspend"
	if suspend {
		name = "suspend"
	}
	fs, profile := newFlagSet(name)
	fs.Parse(args)
	requireArgs(fs, 1, name+" <user>...")

	dac := connect(ctx, *profile)
	if err := dac.SuspendAccounts(ctx, fs.Args(), suspend); err != nil {
		fatal(err)
	}
	fmt.Printf("%sed %s\n", strings.ToUpper(name[:1])+name[1:], strings.Join(fs.Args(), ", "))
}

func cmdDelete(ctx context.Context, args []string) {
	fs, profile := newFlagSet("delete")
	yes := fs.Bool("yes", false, "Confirm deletion")
	fs.Parse(args)
	requireArgs(fs, 1, "delete -yes <user>...")

	if !*yes {
		fmt.Fprintf(os.Stderr, "Refusing to delete %s without -yes\n", strings.Join(fs.Args(), ", "))
		os.Exit(1)
	}

	dac := connect(ctx, *profile)
	if err := dac.DeleteAccounts(ctx, fs.Args()); err != nil {
		fatal(err)
	}
	fmt.Printf("Deleted %s\n", strings.Join(fs.Args(), ", "))
}

func cmdModify(ctx context.Context, args []string) {
	fs, profile := newFlagSet("modify")
	reseller := fs.Bool("reseller", false, "Modify the reseller allowance instead of the user config")
	fs.Parse(args)
	requireArgs(fs, 2, "modify [-reseller] <user> key=value...")

	changes := make(map[string]string, fs.NArg()-1)
	for _, kv := range fs.Args()[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			fatal(fmt.Errorf("invalid change %q, want key=value", kv))
		}
		changes[k] = v
	}

	dac := connect(ctx, *profile)
	a := account(ctx, dac, fs.Arg(0))

	var err error
	if *reseller {
		err = a.ModifyResellerConfig(ctx, changes)
	} else {
		err = a.ModifyConfig(ctx, changes)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Modified %s\n", a.Name())
}

func cmdPackages(ctx context.Context, args []string) {
	fs, profile := newFlagSet("packages")
	reseller := fs.Bool("reseller", false, "List reseller packages (admin)")
	fs.Parse(args)

	dac := connect(ctx, *profile)

	if fs.NArg() > 0 {
		limits, err := dac.Package(ctx, fs.Arg(0))
		if err != nil {
			fatal(err)
		}
		printMap(limits)
		return
	}

	var pkgs []string
	var err error
	if *reseller {
		pkgs, err = dac.ResellerPackages(ctx)
	} else {
		pkgs, err = dac.Packages(ctx)
	}
	if err != nil {
		fatal(err)
	}
	for _, p := range pkgs {
		fmt.Println(p)
	}
}

func cmdChangePackage(ctx context.Context, args []string) {
	fs, profile := newFlagSet("package")
	fs.Parse(args)
	requireArgs(fs, 2, "package <user> <package>")

	dac := connect(ctx, *profile)
	a := account(ctx, dac, fs.Arg(0))
	if err := a.ChangePackage(ctx, fs.Arg(1)); err != nil {
		fatal(err)
	}
	fmt.Printf("Moved %s to package %q\n", a.Name(), fs.Arg(1))
}

func cmdLoginKeys(ctx context.Context, args []string) {
	fs, profile := newFlagSet("login-keys")
	fs.Parse(args)
	requireArgs(fs, 1, "login-keys <user>")

	dac := connect(ctx, *profile)
	keys, err := account(ctx, dac, fs.Arg(0)).LoginKeys(ctx)
	if err != nil {
		fatal(err)
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

// ---------- Domains ----------

func cmdDomains(ctx context.Context, args []string) {
	fs, profile := newFlagSet("domains")
	fs.Parse(args)
	requireArgs(fs, 1, "domains <user>")

	dac := connect(ctx, *profile)
	domains, err := account(ctx, dac, fs.Arg(0)).Domains(ctx)
	if err != nil {
		fatal(err)
	}
	for _, d := range domains {
		fmt.Println(d.Name())
	}
}

func cmdDomainAdd(ctx context.Context, args []string) {
	fs, profile := newFlagSet("domain-add")
	bandwidth := fs.String("bandwidth", "", "Bandwidth limit in MB or \"unlimited\" (default: account limit)")
	quota := fs.String("quota", "", "Disk limit in MB or \"unlimited\" (default: account limit)")
	ssl := fs.Bool("ssl", true, "Enable SSL")
	cgi := fs.Bool("cgi", false, "Enable CGI")
	php := fs.Bool("php", true, "Enable PHP")
	fs.Parse(args)
	requireArgs(fs, 2, "domain-add [flags] <user> <domain>")

	opts := directadmin.DomainOptions{
		Bandwidth: quotaFlag(*bandwidth),
		Quota:     quotaFlag(*quota),
		SSL:       *ssl,
		CGI:       *cgi,
		PHP:       *php,
	}

	dac := connect(ctx, *profile)
	d, err := account(ctx, dac, fs.Arg(0)).CreateDomain(ctx, fs.Arg(1), opts)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created domain %s\n", d)
}

func cmdDomainRemove(ctx context.Context, args []string) {
	fs, profile := newFlagSet("domain-rm")
	fs.Parse(args)
	requireArgs(fs, 2, "domain-rm <user> <domain>")

	dac := connect(ctx, *profile)
	d := domain(ctx, dac, fs.Arg(0), fs.Arg(1))
	if err := d.Delete(ctx); err != nil {
		fatal(err)
	}
	fmt.Printf("Deleted domain %s\n", d)
}

func cmdDomainShow(ctx context.Context, args []string) {
	fs, profile := newFlagSet("domain-show")
	fs.Parse(args)
	requireArgs(fs, 2, "domain-show <user> <domain>")

	dac := connect(ctx, *profile)
	settings, err := domain(ctx, dac, fs.Arg(0), fs.Arg(1)).Settings(ctx)
	if err != nil {
		fatal(err)
	}
	printMap(settings)
}

func cmdSubdomains(ctx context.Context, args []string) {
	fs, profile := newFlagSet("subdomains")
	create := fs.String("create", "", "Create this subdomain instead of listing")
	fs.Parse(args)
	requireArgs(fs, 2, "subdomains [-create NAME] <user> <domain>")

	dac := connect(ctx, *profile)
	d := domain(ctx, dac, fs.Arg(0), fs.Arg(1))

	if *create != "" {
		if err := d.CreateSubdomain(ctx, *create); err != nil {
			fatal(err)
		}
		fmt.Printf("Created subdomain %s.%s\n", *create, d)
		return
	}

	subs, err := d.Subdomains(ctx)
	if err != nil {
		fatal(err)
	}
	for _, s := range subs {
		fmt.Printf("%s.%s\n", s, d)
	}
}

func domain(ctx context.Context, dac *directadmin.Context, user, name string) *directadmin.Domain {
	d, err := account(ctx, dac, user).Domain(ctx, name)
	if err != nil {
		fatal(err)
	}
	if d == nil {
		fatal(fmt.Errorf("domain %q not owned by %s", name, user))
	}
	return d
}

func quotaFlag(s string) *directadmin.Quota {
	if s == "" {
		return nil
	}
	q, err := directadmin.ParseQuota(s)
	if err != nil {
		fatal(err)
	}
	return &q
}

// ---------- Databases ----------

func cmdDatabases(ctx context.Context, args []string) {
	fs, profile := newFlagSet("databases")
	fs.Parse(args)
	requireArgs(fs, 1, "databases <user>")

	dac := connect(ctx, *profile)
	dbs, err := account(ctx, dac, fs.Arg(0)).Databases(ctx)
	if err != nil {
		fatal(err)
	}
	for _, db := range dbs {
		fmt.Println(db.Name())
	}
}

func cmdDatabaseAdd(ctx context.Context, args []string) {
	fs, profile := newFlagSet("database-add")
	dbUser := fs.String("user", "", "Database user suffix (default: database name)")
	password := fs.String("password", os.Getenv("DA_DB_PASSWORD"), "Database user password (default: $DA_DB_PASSWORD)")
	fs.Parse(args)
	requireArgs(fs, 2, "database-add [-user NAME] [-password PW] <user> <database>")

	if *password == "" {
		fatal(errors.New("a database password is required"))
	}
	user := *dbUser
	if user == "" {
		user = fs.Arg(1)
	}

	dac := connect(ctx, *profile)
	db, err := account(ctx, dac, fs.Arg(0)).CreateDatabase(ctx, fs.Arg(1), user, *password)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created database %s\n", db.Name())
}

func cmdDatabaseRemove(ctx context.Context, args []string) {
	fs, profile := newFlagSet("database-rm")
	fs.Parse(args)
	requireArgs(fs, 2, "database-rm <user> <database>")

	dac := connect(ctx, *profile)
	db, err := account(ctx, dac, fs.Arg(0)).Database(ctx, fs.Arg(1))
	if err != nil {
		fatal(err)
	}
	if db == nil {
		fatal(fmt.Errorf("database %q not found", fs.Arg(1)))
	}
	if err := db.Delete(ctx); err != nil {
		fatal(err)
	}
	fmt.Printf("Deleted database %s\n", db.Name())
}

// ---------- Profiles ----------

func cmdProfileAdd(args []string) {
	fs := flag.NewFlagSet("profile-add", flag.ExitOnError)
	url := fs.String("url", "", "Panel URL, e.g. https://server.example.com:2222 (required)")
	username := fs.String("username", "", "Login name (required)")
	passwordEnv := fs.String("password-env", "", "Environment variable holding the password")
	loginAs := fs.String("login-as", "", "Act as this account through login-as")
	insecure := fs.Bool("insecure", false, "Skip TLS certificate verification")
	caCert := fs.String("ca-cert", "", "PEM file with the CA that signed the panel certificate")
	setActive := fs.Bool("set-active", true, "Set this profile as active after saving")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dactl profile-add -url URL -username NAME [-password-env VAR] <name>")
		os.Exit(1)
	}

	p := &cli.Profile{
		Name:        fs.Arg(0),
		URL:         *url,
		Username:    *username,
		PasswordEnv: *passwordEnv,
		LoginAs:     *loginAs,
		Insecure:    *insecure,
		CACert:      *caCert,
	}
	if err := cli.SaveProfile(p); err != nil {
		fatal(err)
	}
	fmt.Printf("Saved profile %q\n", p.Name)

	if *setActive {
		if err := cli.SetActive(p.Name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not set active profile: %v\n", err)
		} else {
			fmt.Printf("Active profile set to %q\n", p.Name)
		}
	}
}

func cmdProfiles(args []string) {
	// Handle delete subcommand.
	if len(args) > 0 && args[0] == "delete" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: dactl profiles delete <name>")
			os.Exit(1)
		}
		if err := cli.DeleteProfile(args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted profile %q\n", args[1])
		return
	}

	profiles, err := cli.ListProfiles()
	if err != nil {
		fatal(err)
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles found. Add one with: dactl profile-add -url URL -username NAME <name>")
		return
	}

	active, _ := cli.GetActive()

	fmt.Printf("%-20s %-40s %-16s %s\n", "NAME", "URL", "USER", "ACTIVE")
	for _, p := range profiles {
		marker := ""
		if p.Name == active {
			marker = " *"
		}
		user := p.Username
		if p.LoginAs != "" {
			user += "|" + p.LoginAs
		}
		fmt.Printf("%-20s %-40s %-16s %s\n", p.Name, p.URL, user, marker)
	}
}

func cmdUse(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dactl use <profile-name>")
		os.Exit(1)
	}

	if err := cli.SetActive(args[0]); err != nil {
		fatal(err)
	}
	fmt.Printf("Active profile set to %q\n", args[0])
}

func printMap(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("%-24s %s\n", k, m[k])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `dactl - DirectAdmin command line client

Usage:
  dactl whoami
  dactl users [-all|-resellers|-admins]
  dactl show <user>
  dactl create-user -type user|reseller|admin -username NAME -email EMAIL -domain DOMAIN
  dactl suspend|unsuspend <user>...
  dactl delete -yes <user>...
  dactl modify [-reseller] <user> key=value...
  dactl packages [-reseller] [package]
  dactl package <user> <package>
  dactl domains <user>
  dactl domain-add [-bandwidth MB] [-quota MB] <user> <domain>
  dactl domain-rm <user> <domain>
  dactl domain-show <user> <domain>
  dactl subdomains [-create NAME] <user> <domain>
  dactl databases <user>
  dactl database-add [-user NAME] [-password PW] <user> <database>
  dactl database-rm <user> <database>
  dactl login-keys <user>
  dactl profile-add -url URL -username NAME [-password-env VAR] <name>
  dactl profiles [delete <name>]
  dactl use <name>
  dactl exporter [-addr :9222]

Every command connecting to the panel accepts -profile NAME. Without a
profile, DA_URL, DA_USERNAME and DA_PASSWORD are read from the environment.
Limits accept a number of MB or "unlimited".

Profiles are stored in ~/.config/directadmin/profiles/.`)
}
