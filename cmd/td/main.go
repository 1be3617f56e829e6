// Command td is the Taskdock CLI: task, user, and weather management plus the
// HTTP API server, all backed by the same engine and data directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"taskdock/internal/app"
	"taskdock/internal/config"
	"taskdock/internal/domain"
	"taskdock/internal/engine"
	"taskdock/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "Taskdock CLI",
	Long: `Taskdock manages tasks, users, and weather readings from one data directory.
Documents are JSON files under the data dir, activity history lives in a
SQLite log next to them, and td serve exposes the same engine over HTTP
with an OpenAPI document and Swagger UI.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKDOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory holding taskdock.yml")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides the configured one)")
	rootCmd.PersistentFlags().Bool("json", false, "print machine-readable JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(weatherCmd())
	rootCmd.AddCommand(dbCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
}

// withEngine wires the engine from the persistent flags and tears it down
// after fn returns.
func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	eng, cleanup, err := app.Setup(app.Options{
		Workspace: viper.GetString("workspace"),
		DataDir:   viper.GetString("data-dir"),
	})
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, eng)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	return tw
}

// --- tasks ---

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
		Long: `Tasks carry a status, a priority from 1 to 5, a category, optional due date,
and tags. Listing supports the same filters and sort keys as the API.`,
	}
	cmd.AddCommand(tasksListCmd())
	cmd.AddCommand(tasksCreateCmd())
	cmd.AddCommand(tasksUpdateCmd())
	cmd.AddCommand(tasksDeleteCmd())
	cmd.AddCommand(tasksStatsCmd())
	cmd.AddCommand(tasksCategoriesCmd())
	return cmd
}

func tasksListCmd() *cobra.Command {
	var opts engine.TaskListOptions
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Descending = order != "asc"
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.ListTasks(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := newTable(table.Row{"ID", "Title", "Status", "Priority", "Category", "Due"})
				for _, t := range tasks {
					due := ""
					if t.DueDate != nil {
						due = *t.DueDate
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, t.Category, due})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "filter by priority (1-5)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search in title and description")
	cmd.Flags().BoolVar(&opts.OverdueOnly, "overdue", false, "only overdue tasks")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", engine.SortByCreatedAt, "sort key (created_at, due_date, priority, title, category)")
	cmd.Flags().StringVar(&order, "order", "desc", "sort order (asc, desc)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the number of results")
	return cmd
}

func tasksCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var description, due string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("due") {
				opts.DueDate = &due
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (defaults to pending)")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "priority 1-5 (defaults to 1)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category (defaults to other)")
	cmd.Flags().StringVar(&due, "due", "", "due date, RFC 3339")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func tasksUpdateCmd() *cobra.Command {
	var opts engine.TaskUpdateOptions
	var description, due string
	var tags []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Long:  "Only the flags you pass change; --description \"\" and --due \"\" clear the field.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			opts.ID = id
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("due") {
				opts.DueDate = &due
			}
			if cmd.Flags().Changed("tag") {
				opts.Tags = tags
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description (empty clears)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "new status")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "new priority 1-5")
	cmd.Flags().StringVar(&opts.Category, "category", "", "new category")
	cmd.Flags().StringVar(&due, "due", "", "new due date (empty clears)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "replacement tag set (repeatable)")
	return cmd
}

func tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteTask(ctx, id); err != nil {
					return err
				}
				fmt.Printf("deleted task %d\n", id)
				return nil
			})
		},
	}
}

func tasksStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats := e.TaskStatistics(ctx)
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				fmt.Printf("Total: %d  Overdue: %d  High priority: %d  Completion: %.1f%%\n",
					stats.Total, stats.Overdue, stats.HighPriority, stats.CompletionRate)
				fmt.Println("By status:")
				for _, s := range domain.TaskStatuses {
					fmt.Printf("  %-12s %d\n", s, stats.ByStatus[s])
				}
				fmt.Println("By category:")
				for _, c := range domain.TaskCategories {
					fmt.Printf("  %-12s %d\n", c, stats.ByCategory[c])
				}
				return nil
			})
		},
	}
}

func tasksCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List task categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := engine.Categories()
			if viper.GetBool("json") {
				return printJSON(cats)
			}
			tw := newTable(table.Row{"Value", "Label", "Color"})
			for _, c := range cats {
				tw.AppendRow(table.Row{c.Value, c.Label, c.Color})
			}
			tw.Render()
			return nil
		},
	}
}

// --- users ---

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersCreateCmd())
	cmd.AddCommand(usersDeleteCmd())
	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				users := e.ListUsers(ctx)
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := newTable(table.Row{"ID", "Username", "Email", "Name", "Active"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Username, u.Email, u.FullName(), u.IsActive})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func usersCreateCmd() *cobra.Command {
	var opts engine.UserCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.CreateUser(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "", "unique username")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("deleted user %s\n", args[0])
				return nil
			})
		},
	}
}

// --- weather ---

func weatherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Weather readings and forecasts",
	}
	cmd.AddCommand(weatherGetCmd())
	cmd.AddCommand(weatherForecastCmd())
	return cmd
}

func weatherGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <location>",
		Short: "Show current weather for a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, cached, err := e.CurrentWeather(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"weather": w, "cached": cached})
				}
				fmt.Printf("%s: %.1f°C (%.1f°F), %s\n", w.Location, w.Temperature, w.TemperatureFahrenheit(), w.Condition)
				fmt.Printf("humidity %.0f%%, wind %.1f km/h, pressure %.1f hPa, visibility %.1f km\n",
					w.Humidity, w.WindSpeed, w.Pressure, w.Visibility)
				if cached {
					fmt.Println("(cached reading)")
				}
				if w.IsGoodWeather() {
					fmt.Println("Good weather for outdoor activities.")
				} else {
					fmt.Println("Not ideal for outdoor activities.")
				}
				return nil
			})
		},
	}
}

func weatherForecastCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "forecast <location>",
		Short: "Show a multi-day forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				forecast, err := e.WeatherForecast(ctx, args[0], days)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(forecast)
				}
				tw := newTable(table.Row{"Date", "Temp °C", "Condition", "Humidity", "Wind"})
				for _, w := range forecast {
					tw.AppendRow(table.Row{w.Timestamp, fmt.Sprintf("%.1f", w.Temperature), w.Condition, w.Humidity, fmt.Sprintf("%.1f", w.WindSpeed)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 5, "forecast length in days (1-7)")
	return cmd
}

// --- db ---

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Back up and restore the data directory",
	}
	cmd.AddCommand(dbBackupCmd())
	cmd.AddCommand(dbRestoreCmd())
	cmd.AddCommand(dbBackupsCmd())
	cmd.AddCommand(dbCleanupCmd())
	return cmd
}

func dbBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of all documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				path, err := e.CreateBackup(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"path": path})
				}
				fmt.Println(path)
				return nil
			})
		},
	}
}

func dbRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <path>",
		Short: "Restore documents from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.RestoreBackup(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("restored from", args[0])
				return nil
			})
		},
	}
}

func dbBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				backups := e.ListBackups(ctx)
				if viper.GetBool("json") {
					return printJSON(backups)
				}
				for _, b := range backups {
					fmt.Println(b)
				}
				return nil
			})
		},
	}
}

func dbCleanupCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if !cmd.Flags().Changed("keep") {
					keep = e.Config.Storage.BackupKeep
				}
				removed := e.CleanupBackups(ctx, keep)
				if viper.GetBool("json") {
					return printJSON(map[string]int{"removed": removed, "keep": keep})
				}
				fmt.Printf("removed %d backups, kept the newest %d\n", removed, keep)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "backups to keep (defaults to the configured value)")
	return cmd
}

// --- settings ---

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Application settings",
	}
	cmd.AddCommand(settingsListCmd())
	cmd.AddCommand(settingsGetCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsDeleteCmd())
	return cmd
}

func settingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				settings := e.Settings(ctx)
				if viper.GetBool("json") {
					return printJSON(settings)
				}
				keys := make([]string, 0, len(settings))
				for k := range settings {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				tw := newTable(table.Row{"Key", "Value"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k, fmt.Sprintf("%v", settings[k])})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func settingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.Setting(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"key": args[0], "value": v})
				}
				fmt.Printf("%v\n", v)
				return nil
			})
		},
	}
}

func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Long:  "The value is decoded as JSON when possible, so numbers, booleans, and objects keep their type; anything else is stored as a string.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.SetSetting(ctx, args[0], value); err != nil {
					return err
				}
				fmt.Printf("set %s\n", args[0])
				return nil
			})
		},
	}
}

func settingsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteSetting(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// --- history ---

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.RecentHistory(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := newTable(table.Row{"ID", "At", "Event", "Entity"})
				for _, entry := range entries {
					entity := entry.EntityKind
					if entry.EntityID != "" {
						entity += "/" + entry.EntityID
					}
					tw.AppendRow(table.Row{entry.ID, entry.TS, entry.Event, entity})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

// --- info / health / init ---

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show application info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				info := e.Info()
				if viper.GetBool("json") {
					return printJSON(info)
				}
				fmt.Printf("%s %s\n%s\n", info.Name, info.Version, info.Description)
				return nil
			})
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				report, err := e.Health(ctx)
				if err != nil {
					return fmt.Errorf("unhealthy: %w", err)
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				fmt.Printf("%s: %d tasks, %d users\n", report.Status, report.Tasks, report.Users)
				return nil
			})
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and seed sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				seeded, err := e.Init(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]bool{"seeded": seeded})
				}
				if seeded {
					fmt.Println("initialized data directory with sample tasks")
				} else {
					fmt.Println("data directory already initialized")
				}
				return nil
			})
		},
	}
}

// --- serve ---

func serveCmd() *cobra.Command {
	var host string
	var port int
	var basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Serves the REST API, the OpenAPI document, and the Swagger UI until interrupted. Flags override the configured listen address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if !cmd.Flags().Changed("host") {
					host = e.Config.Server.Host
				}
				if !cmd.Flags().Changed("port") {
					port = e.Config.Server.Port
				}
				if !cmd.Flags().Changed("base-path") {
					basePath = e.Config.Server.BasePath
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
				if err != nil {
					return err
				}
				addr := fmt.Sprintf("%s:%d", host, port)
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Taskdock API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	cmd.Flags().IntVar(&port, "port", 5000, "listen port")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Workspace configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default taskdock.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if viper.GetBool("json") {
					return printJSON(e.Config)
				}
				out, err := yaml.Marshal(e.Config)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}
}
