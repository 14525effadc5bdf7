package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ThalesGroup/tcrest"
	"github.com/ThalesGroup/tcrest/jsonutil"
	"github.com/ansel1/merry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newGetCmd(flags *globalFlags) *cobra.Command {
	var (
		query   string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a JSON resource",
		Long: `GET a resource relative to the REST root, asking for JSON.

Examples:
  tcrest get server
  tcrest get 'builds?locator=count:5' --query 'build.#.id'`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := headerOptions(headers)
			if err != nil {
				return err
			}
			c, err := flags.client(cmd)
			if err != nil {
				return err
			}

			if query == "" {
				v, err := c.ReadJSON(cmd.Context(), args[0], opts...)
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), v)
			}

			opts = append([]tcrest.CallOption{tcrest.Header(tcrest.HeaderAccept, tcrest.ContentTypeJSON)}, opts...)
			body, err := c.Read(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			res := gjson.GetBytes(body, query)
			if !res.Exists() {
				return merry.Errorf("query %q matched nothing", query)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path to extract from the response")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `extra header, "Key: Value"`)
	return cmd
}

func newRawCmd(flags *globalFlags) *cobra.Command {
	var (
		method  string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "raw <path>",
		Short: "Send a request and print the raw response body",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := headerOptions(headers)
			if err != nil {
				return err
			}
			c, err := flags.client(cmd)
			if err != nil {
				return err
			}
			body, err := c.Read(cmd.Context(), args[0], append(opts, tcrest.Method(method))...)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `extra header, "Key: Value"`)
	return cmd
}

func newSendCmd(flags *globalFlags) *cobra.Command {
	var (
		method  string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "send <path> [body|-]",
		Short: "Send a JSON body",
		Long: `Send a JSON body to a path relative to the REST root.  The body is
read from stdin if it is "-" or omitted.

Examples:
  tcrest send buildQueue '{"buildType":{"id":"Main"}}'
  tcrest send -X PUT 'builds/id:1/comment' - < comment.json`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := headerOptions(headers)
			if err != nil {
				return err
			}

			var body string
			if len(args) == 2 && args[1] != "-" {
				body = args[1]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return merry.Prepend(err, "reading body")
				}
				body = string(b)
			}
			if strings.TrimSpace(body) != "" && !jsonutil.Valid(body) {
				return withExitCode(merry.New("body is not valid JSON"), ExitUsageError)
			}

			c, err := flags.client(cmd)
			if err != nil {
				return err
			}

			var payload interface{}
			if strings.TrimSpace(body) != "" {
				payload = body
			}
			v, err := c.SendJSON(cmd.Context(), args[0], payload, append(opts, tcrest.Method(method))...)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "POST", "HTTP method")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `extra header, "Key: Value"`)
	return cmd
}

func newURLCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the API root URL and auth mode",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			bold := color.New(color.Bold).SprintFunc()
			fmt.Fprintln(cmd.OutOrStdout(), cfg.RedactedAPIURL())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bold("auth:"), cfg.AuthMode())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tcrest version %s\n", version)
		},
	}
}

// printValue prints parsed JSON indented.  Bodies which were not JSON come
// back from the client as strings, and are printed as is.
func printValue(w io.Writer, v interface{}) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return merry.Wrap(err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
