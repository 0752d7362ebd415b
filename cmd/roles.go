package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/spf13/cobra"
)

var rolesJSON bool

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Print the static role table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoles(rbac.NewRoleTable(), rolesJSON)
	},
}

func printRoles(table *rbac.RoleTable, asJSON bool) error {
	if asJSON {
		out := make(map[rbac.Role][]string, len(table.Roles()))
		for _, role := range table.Roles() {
			out[role] = table.Permissions(role).Slice()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tPERMISSIONS")
	for _, role := range table.Roles() {
		fmt.Fprintf(w, "%s\t%s\n", role, strings.Join(table.Permissions(role).Slice(), ","))
	}
	return w.Flush()
}

func init() {
	rolesCmd.Flags().BoolVar(&rolesJSON, "json", false, "print as JSON")
}
