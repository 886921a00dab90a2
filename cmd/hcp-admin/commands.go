package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/eliasmukasa/homelift-landing/internal/app"
	"github.com/eliasmukasa/homelift-landing/internal/config"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

const usage = `usage: hcp-admin <command> [flags]

commands:
  login      sign in with email and password
  logout     sign out and forget the cached session
  whoami     show the signed-in admin
  list       list HCP profiles
  create     create a profile (-photo uploads a picture first)
  edit       update the given fields of a profile
  delete     delete a profile after confirmation
  upload     upload a profile picture and print its URL
  sheet      write the profile sheet PDF
  bio-draft  suggest a bio summary for a profile
`

type cli struct {
	gate     *services.SessionGate
	provider *services.LocalIdentityProvider
	profiles *services.ProfileWorkflow
	uploader *services.AvatarUploader
	drafter  *services.BioDrafter

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newCLI(backend *app.Backend, cfg config.Config, cache services.CredentialCache, clock services.Clock, in io.Reader, out, errOut io.Writer, logger *slog.Logger) *cli {
	configErr := backend.ConfigErr
	if configErr == nil && backend.Auth == nil {
		configErr = services.ErrConfigurationMissing
	}
	provider := services.NewLocalIdentityProvider(backend.Auth, cache, clock, logger)
	gate := services.NewSessionGate(provider, configErr, logger)

	policy := services.DefaultUploadPolicy()
	if cfg.AvatarMaxBytes > 0 {
		policy.MaxBytes = cfg.AvatarMaxBytes
	}
	return &cli{
		gate:     gate,
		provider: provider,
		profiles: services.NewProfileWorkflow(gate, backend.Docs, clock, cfg.Collection, logger),
		uploader: services.NewAvatarUploader(backend.Objects, cfg.AvatarPrefix, policy, logger),
		drafter:  services.NewBioDrafter(backend.Generator, logger),
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
	}
}

func (c *cli) close() {
	c.profiles.Close()
	c.gate.Close()
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.errOut, usage)
		return flag.ErrHelp
	}
	if _, err := c.gate.Wait(ctx); err != nil {
		return err
	}

	commands := map[string]func(context.Context, []string) error{
		"login":     c.login,
		"logout":    c.logout,
		"whoami":    c.whoami,
		"list":      c.list,
		"create":    c.create,
		"edit":      c.edit,
		"delete":    c.delete,
		"upload":    c.upload,
		"sheet":     c.sheet,
		"bio-draft": c.bioDraft,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(c.errOut, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, args[1:])
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", config.GetEnv("HCP_ADMIN_EMAIL", ""), "admin email")
	password := fs.String("password", "", "password (default: $HCP_ADMIN_PASSWORD, else read from stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = config.GetEnv("HCP_ADMIN_PASSWORD", "")
	}
	if *password == "" {
		fmt.Fprint(c.errOut, "Password: ")
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	identity, err := c.gate.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", identity.Email, identity.ID)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.gate.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

func (c *cli) whoami(context.Context, []string) error {
	state := c.gate.State()
	switch {
	case state.Mode == services.ModeDisabled:
		return c.gate.Authorize()
	case state.Identity == nil:
		fmt.Fprintln(c.out, "Not signed in")
	default:
		fmt.Fprintf(c.out, "%s (%s)\n", state.Identity.Email, state.Identity.ID)
		if creds, ok := c.provider.Credentials(); ok {
			fmt.Fprintf(c.out, "session expires %s\n", models.FormatTimestamp(creds.ExpiresAt))
		}
	}
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	profiles, err := c.profiles.List(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.ProfileListResponse{Profiles: profiles})
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSKILL\tYEARS\tLOCATION\tSTATUS")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.FullName, p.PrimarySkill, p.ExperienceYears, p.LocationPreference, p.InternalStatus)
	}
	return tw.Flush()
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := c.flags("create")
	fields := newPatchFlags(fs)
	photo := fs.String("photo", "", "path of a profile picture to upload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := services.NewForm(c.profiles, c.uploader)
	return c.submit(ctx, form, fields.patch(nil), *photo)
}

func (c *cli) edit(ctx context.Context, args []string) error {
	fs := c.flags("edit")
	fields := newPatchFlags(fs)
	photo := fs.String("photo", "", "path of a new profile picture to upload")
	clearPhoto := fs.Bool("clear-photo", false, "remove the profile picture")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	profile, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	patch := fields.patch(&profile)
	if *clearPhoto {
		patch.ProfilePhotoURL = models.Null[string]()
	}
	if patch.IsEmpty() && *photo == "" {
		return errors.New("nothing to change: pass at least one field flag")
	}
	return c.submit(ctx, services.EditForm(c.profiles, profile, c.uploader), patch, *photo)
}

// submit runs the photo upload, if any, before saving, printing progress as it goes.
func (c *cli) submit(ctx context.Context, form *services.ProfileForm, patch models.Patch, photo string) error {
	form.Set(func(p *models.Patch) { *p = patch })
	if photo != "" {
		file, err := services.FileFromPath(photo)
		if err != nil {
			return err
		}
		if _, err := form.Upload(ctx, file, c.progress); err != nil {
			fmt.Fprintln(c.errOut)
			return err
		}
		fmt.Fprintln(c.errOut, "\ruploading 100%")
	}

	res, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if res.Created {
		fmt.Fprintf(c.out, "Created profile %s\n", res.ID)
	} else {
		fmt.Fprintf(c.out, "Updated profile %s\n", res.ID)
	}
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := c.flags("delete")
	yes := fs.Bool("yes", false, "delete without asking")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	label := id
	if p, err := c.find(ctx, id); err == nil {
		label = fmt.Sprintf("%s (%s)", p.FullName, id)
	}
	confirm := func() bool {
		if *yes {
			return true
		}
		fmt.Fprintf(c.errOut, "Permanently delete %s? [y/N]: ", label)
		line, _ := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
	if err := c.profiles.Delete(ctx, id, confirm); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted profile %s\n", id)
	return nil
}

func (c *cli) upload(ctx context.Context, args []string) error {
	fs := c.flags("upload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: hcp-admin upload <file>")
	}
	if err := c.gate.Authorize(); err != nil {
		return err
	}
	file, err := services.FileFromPath(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := c.uploader.Pick(file); err != nil {
		return err
	}
	url, err := c.uploader.Run(ctx, c.progress)
	if err != nil {
		fmt.Fprintln(c.errOut)
		return err
	}
	fmt.Fprintln(c.errOut, "\ruploading 100%")
	fmt.Fprintln(c.out, url)
	return nil
}

func (c *cli) sheet(ctx context.Context, args []string) error {
	fs := c.flags("sheet")
	output := fs.String("o", "", "output file (default hcp-<id>.pdf)")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	profile, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	if *output == "" {
		*output = "hcp-" + id + ".pdf"
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := services.RenderSheet(f, profile); err != nil {
		_ = f.Close()
		_ = os.Remove(*output)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Wrote %s\n", *output)
	return nil
}

func (c *cli) bioDraft(ctx context.Context, args []string) error {
	fs := c.flags("bio-draft")
	apply := fs.Bool("apply", false, "save the suggestion as the profile's bioSummary")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	profile, err := c.find(ctx, id)
	if err != nil {
		return err
	}

	bio, err := c.drafter.Draft(ctx, profile)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, bio)
	if !*apply {
		return nil
	}
	form := services.EditForm(c.profiles, profile, nil)
	form.Set(func(p *models.Patch) { p.BioSummary = models.Some(bio) })
	if _, err := form.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved bioSummary of %s\n", id)
	return nil
}

func (c *cli) find(ctx context.Context, id string) (models.Profile, error) {
	if _, err := c.profiles.List(ctx); err != nil {
		return models.Profile{}, err
	}
	p, ok := c.profiles.Find(id)
	if !ok {
		return models.Profile{}, fmt.Errorf("profile %s not found", id)
	}
	return p, nil
}

func (c *cli) progress(e services.UploadEvent) {
	fmt.Fprintf(c.errOut, "\ruploading %3.0f%%", e.Percent())
}

// parseWithID accepts the profile ID before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("usage: hcp-admin %s <profile-id> [flags]", fs.Name())
	}
	return id, nil
}
