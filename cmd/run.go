package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betpool/cli"
	"betpool/config"
	"betpool/events"
	"betpool/models"
	"betpool/repository"
	"betpool/service"
	"betpool/storage"
)

type app struct {
	records   service.RecordService
	templates service.TemplateService
	trash     service.TrashService
	confirm   service.ConfirmFunc
}

// Run wires storage, repositories and services together and dispatches
// the requested subcommand.
func Run(ctx context.Context, args []string) error {
	cfg := config.Get()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	historyStore, err := storage.NewStore(cfg.HistoryDir())
	if err != nil {
		return fmt.Errorf("failed to open history storage: %w", err)
	}
	templateStore, err := storage.NewStore(cfg.TemplatesDir())
	if err != nil {
		return fmt.Errorf("failed to open template storage: %w", err)
	}
	trashStore, err := storage.NewStore(cfg.TrashDir())
	if err != nil {
		return fmt.Errorf("failed to open trash storage: %w", err)
	}

	bus := events.NewBus()
	subscribeNotifications(bus)

	sessions := repository.NewSessionRepository(historyStore)
	templateRepo := repository.NewTemplateRepository(templateStore)
	trashRepo := repository.NewTrashRepository(trashStore)

	a := &app{
		records:   service.NewRecordService(sessions, trashRepo, bus, cfg.SaveGrace(), cfg.TrashRetention(), nil),
		templates: service.NewTemplateService(templateRepo, bus),
		trash:     service.NewTrashService(sessions, trashRepo, bus, cfg.TrashRetention(), nil),
		confirm:   stdinConfirm,
	}

	if len(args) == 0 {
		return usageError()
	}

	switch args[0] {
	case "new":
		return a.cmdNew(ctx, args[1:])
	case "list":
		return a.cmdList(ctx)
	case "show":
		return a.cmdShow(ctx, args[1:])
	case "add":
		return a.cmdAdd(ctx, args[1:])
	case "remove":
		return a.cmdRemove(ctx, args[1:])
	case "stake":
		return a.cmdStake(ctx, args[1:])
	case "prize":
		return a.cmdPrize(ctx, args[1:])
	case "save":
		return a.cmdSave(ctx, args[1:])
	case "delete":
		return a.cmdDelete(ctx, args[1:])
	case "template":
		return a.cmdTemplate(ctx, args[1:])
	case "trash":
		return a.cmdTrash(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage())
	}
}

func (a *app) cmdNew(ctx context.Context, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))

	record, err := a.records.Create(ctx, title)
	if err != nil {
		return err
	}

	fmt.Printf("Created record %s (%q)\n", record.ID, record.Title)
	return nil
}

func (a *app) cmdList(ctx context.Context) error {
	headers, err := a.records.List(ctx)
	if err != nil {
		return err
	}

	fmt.Print(cli.RenderRecordList(headers))
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: betpool show <id>")
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Print(cli.RenderRecord(record))
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: betpool add <id> <name>...")
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	for _, name := range args[1:] {
		if err := a.records.AddParticipant(record, name); err != nil {
			return fmt.Errorf("failed to add %q: %w", name, err)
		}
	}

	return a.records.Save(ctx, record, a.confirm)
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: betpool remove <id> <name>")
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	if err := a.records.RemoveParticipant(record, args[1]); err != nil {
		return err
	}

	return a.records.Save(ctx, record, a.confirm)
}

func (a *app) cmdStake(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: betpool stake <id> <name> <number> <amount>")
	}

	number, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", args[2], err)
	}
	amount, err := decimal.NewFromString(args[3])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[3], err)
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	if err := a.records.SetStake(record, args[1], number, amount); err != nil {
		return err
	}

	return a.records.Save(ctx, record, a.confirm)
}

func (a *app) cmdPrize(ctx context.Context, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return fmt.Errorf("usage: betpool prize <id> <number> <rate> | betpool prize <id> clear")
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		if args[1] != "clear" {
			return fmt.Errorf("usage: betpool prize <id> <number> <rate> | betpool prize <id> clear")
		}
		if err := a.records.SetPrizeSettings(record, nil, nil); err != nil {
			return err
		}
		return a.records.Save(ctx, record, a.confirm)
	}

	number, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid winning number %q: %w", args[1], err)
	}
	rate, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("invalid payout rate %q: %w", args[2], err)
	}

	if err := a.records.SetPrizeSettings(record, &number, &rate); err != nil {
		return err
	}

	if err := a.records.Save(ctx, record, a.confirm); err != nil {
		return err
	}

	fmt.Print(cli.RenderRecord(record))
	return nil
}

func (a *app) cmdSave(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: betpool save <id>")
	}

	record, err := a.records.Load(ctx, args[0])
	if err != nil {
		return err
	}

	return a.records.Save(ctx, record, a.confirm)
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: betpool delete <id>")
	}

	if err := a.records.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted record %s\n", args[0])
	return nil
}

func (a *app) cmdTemplate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: betpool template <save|apply|list|delete> ...")
	}

	switch args[0] {
	case "save":
		if len(args) != 3 {
			return fmt.Errorf("usage: betpool template save <id> <name>")
		}
		record, err := a.records.Load(ctx, args[1])
		if err != nil {
			return err
		}
		if err := a.templates.SaveFromRecord(ctx, args[2], record, a.confirm); err != nil {
			return err
		}
		fmt.Printf("Saved template %q (%d participants)\n", args[2], len(record.Participants))
		return nil

	case "apply":
		if len(args) != 3 {
			return fmt.Errorf("usage: betpool template apply <id> <name>")
		}
		record, err := a.records.Load(ctx, args[1])
		if err != nil {
			return err
		}
		added, duplicates, err := a.templates.Apply(ctx, record, args[2])
		if err != nil {
			return err
		}
		if err := a.records.Save(ctx, record, a.confirm); err != nil {
			return err
		}
		fmt.Printf("Added %d participant(s)\n", len(added))
		if len(duplicates) > 0 {
			fmt.Printf("Already present: %s\n", strings.Join(duplicates, ", "))
		}
		return nil

	case "list":
		infos, err := a.templates.List(ctx)
		if err != nil {
			return err
		}
		fmt.Print(cli.RenderTemplateList(infos))
		return nil

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: betpool template delete <name>")
		}
		if err := a.templates.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted template %q\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown template command %q", args[0])
	}
}

func (a *app) cmdTrash(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: betpool trash <list|restore|delete|purge> ...")
	}

	switch args[0] {
	case "list":
		if len(args) != 2 {
			return fmt.Errorf("usage: betpool trash list <id>")
		}
		entries, err := a.trash.ListForRecord(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Print(cli.RenderTrashList(entries))
		return nil

	case "restore":
		if len(args) != 2 && len(args) != 3 {
			return fmt.Errorf("usage: betpool trash restore <id> [key]")
		}
		var record *models.BetRecord
		var err error
		if len(args) == 3 {
			var key models.TrashKey
			key, err = parseTrashKey(args[1], args[2])
			if err != nil {
				return err
			}
			record, err = a.trash.RestoreSpecific(ctx, key)
		} else {
			record, err = a.trash.RestoreLatest(ctx, args[1])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Restored record %s (%q)\n", record.ID, record.Title)
		return nil

	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: betpool trash delete <id> <key>")
		}
		key, err := parseTrashKey(args[1], args[2])
		if err != nil {
			return err
		}
		if err := a.trash.DeleteEntry(ctx, key); err != nil {
			return err
		}
		fmt.Println("Deleted backup")
		return nil

	case "purge":
		purged, err := a.trash.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired backup(s)\n", purged)
		return nil

	default:
		return fmt.Errorf("unknown trash command %q", args[0])
	}
}

// parseTrashKey builds the composite backup key from a record id and the
// unix-second key shown by `trash list`.
func parseTrashKey(id, key string) (models.TrashKey, error) {
	seconds, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return models.TrashKey{}, fmt.Errorf("invalid backup key %q: %w", key, err)
	}
	return models.TrashKey{ID: id, BackupTime: time.Unix(seconds, 0)}, nil
}

// stdinConfirm asks the user on the terminal. Anything but an explicit
// yes declines.
func stdinConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func subscribeNotifications(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRecordBackedUp, func(ctx context.Context, e events.Event) {
		ev := e.(events.RecordBackedUpEvent)
		log.WithFields(log.Fields{
			"recordID":   ev.RecordID,
			"backupTime": ev.BackupTime,
		}).Info("Previous version moved to trash")
	})

	bus.Subscribe(events.EventTypeTrashPurged, func(ctx context.Context, e events.Event) {
		ev := e.(events.TrashPurgedEvent)
		log.WithFields(log.Fields{
			"purged": ev.Purged,
		}).Info("Expired trash backups purged")
	})

	bus.Subscribe(events.EventTypeRecordRestored, func(ctx context.Context, e events.Event) {
		ev := e.(events.RecordRestoredEvent)
		log.WithFields(log.Fields{
			"recordID": ev.RecordID,
		}).Info("Record restored from trash")
	})
}

func usage() string {
	return strings.TrimSpace(`
Usage: betpool <command> [args]

Commands:
  new [title]                        create a new record
  list                               list saved records
  show <id>                          show the settlement breakdown
  add <id> <name>...                 add participants
  remove <id> <name>                 remove a participant and their stakes
  stake <id> <name> <number> <amt>   set a stake (amount 0 clears it)
  prize <id> <number> <rate>         set the winning number and payout rate
  prize <id> clear                   unset the prize
  save <id>                          re-save a record
  delete <id>                        delete a record (trash is kept)
  template save <id> <name>          save the participant list as a template
  template apply <id> <name>         merge a template into a record
  template list                      list templates
  template delete <name>             delete a template
  trash list <id>                    list backups for a record
  trash restore <id> [key]           restore the latest (or a specific) backup
  trash delete <id> <key>            delete one backup
  trash purge                        purge expired backups
`)
}

func usageError() error {
	return fmt.Errorf("%s", usage())
}
