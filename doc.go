// Package sigcli turns plain Go functions into command-line subcommands. A command function takes a
// [*Context] and, optionally, a parameters struct; its fields and its docstring define the flags,
// positionals and help text:
//
//	type deployParams struct {
//	    Service string
//	    Env     string   `default:"staging" arg:"aliases=-e"`
//	    DryRun  bool     `default:"false"`
//	    Targets []string `arg:",variadic"`
//	}
//
//	const deployDoc = `Deploy a service.
//
//	Args:
//	    service: Service to deploy.
//	    env: Target environment.
//	    dry_run: Only print what would happen.
//	    targets: Hosts to deploy to.
//	`
//
//	func deploy(ctx *sigcli.Context, p deployParams) error { ... }
//
//	reg := sigcli.NewRegistry()
//	reg.Group("release", "Release tools", sigcli.WithDescription("Ship things.")).
//	    Command("", deploy, deployDoc)
//	err := sigcli.Execute(ctx, reg, os.Args[1:], &sigcli.Options{Version: version})
//
// The function signature is compiled by package signature and realized on a [Command], the
// package's lightweight engine built on the standard flag package. Commands can also be written by
// hand with a [flag.FlagSet] and an Exec function and run with [Parse] and [Run].
package sigcli
