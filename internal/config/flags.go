package config

import (
	"flag"
	"os"
)

// parses CLI flags for the set-tier subcommand
func ParseTierFlags() Flags {
	fs := flag.NewFlagSet("set-tier", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	tier := fs.String("tier", "free", "tier: free, premium or platinum")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // ExitOnError flag set handles errors

	return Flags{UserID: *user, Tier: *tier}
}

// parses CLI flags for the add-vehicle subcommand
func ParseVehicleFlags() Flags {
	fs := flag.NewFlagSet("add-vehicle", flag.ExitOnError)
	user := fs.String("user", "", "owner user id")
	vin := fs.String("vin", "", "vehicle identification number")
	brand := fs.String("brand", "", "vehicle brand")
	model := fs.String("model", "", "vehicle model")
	year := fs.Int("year", 0, "model year")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // ExitOnError flag set handles errors

	return Flags{UserID: *user, VIN: *vin, Brand: *brand, Model: *model, Year: *year}
}

// parses CLI flags for the issue-token subcommand
func ParseTokenFlags() Flags {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	user := fs.String("user", "", "user id to put in the token")
	email := fs.String("email", "", "optional email claim")
	fs.Parse(subcommandArgs()) //nolint:errcheck,gosec // ExitOnError flag set handles errors

	return Flags{UserID: *user, Email: *email}
}

func subcommandArgs() []string {
	if len(os.Args) < 3 {
		return nil
	}

	return os.Args[2:]
}
