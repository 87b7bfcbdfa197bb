// Command lostfound-cli консольный клиент сервиса находок: лента, PIN и переписка.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/ignatzorin/lostfound-backend/internal/client"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/poller"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL string
		token     string
		username  string
		password  string
		interval  time.Duration
		itemType  string
		logLevel  string
	)

	flagSet := pflag.NewFlagSet("lostfound-cli", pflag.ContinueOnError)
	flagSet.StringVar(&serverURL, "server", envOr("LOSTFOUND_URL", "http://localhost:3000"), "адрес API")
	flagSet.StringVar(&token, "token", os.Getenv("LOSTFOUND_TOKEN"), "access токен")
	flagSet.StringVarP(&username, "username", "u", "", "логин (@gmail.com) для входа")
	flagSet.StringVarP(&password, "password", "p", "", "пароль для входа")
	flagSet.DurationVar(&interval, "interval", poller.DefaultInterval, "период обновления переписки в watch")
	flagSet.StringVar(&itemType, "type", "", "фильтр ленты: lost или found")
	flagSet.StringVar(&logLevel, "log-level", "warn", "уровень логирования")
	flagSet.BoolP("help", "h", false, "показать справку")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	logger.Init(logLevel)
	logger.SetTextFormatter()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(serverURL)
	if token != "" {
		api.SetToken(token)
	} else if username != "" {
		if _, err := api.Login(ctx, username, password); err != nil {
			return fmt.Errorf("вход: %w", err)
		}
	}

	args := flagSet.Args()
	switch args[0] {
	case "items":
		return listItems(ctx, api, itemType)
	case "pin":
		itemID, err := parseIDArg(args, 1, "item-id")
		if err != nil {
			return err
		}
		pin, err := api.MintPin(ctx, itemID)
		if err != nil {
			return err
		}
		fmt.Printf("PIN для передачи: %s\n", pin)
		return nil
	case "verify":
		itemID, err := parseIDArg(args, 1, "item-id")
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("verify: укажите PIN")
		}
		res, err := api.VerifyPin(ctx, itemID, args[2])
		if err != nil {
			return err
		}
		fmt.Printf("объявление закрыто: %v, ваша репутация: %d\n", res.Resolved, res.Reputation)
		return nil
	case "send":
		itemID, err := parseIDArg(args, 1, "item-id")
		if err != nil {
			return err
		}
		receiverID, err := parseIDArg(args, 2, "receiver-id")
		if err != nil {
			return err
		}
		if len(args) < 4 {
			return errors.New("send: укажите текст сообщения")
		}
		msg, err := api.PostMessage(ctx, itemID, receiverID, strings.Join(args[3:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("отправлено в %s\n", msg.CreatedAt.Format(time.RFC3339))
		return nil
	case "watch":
		return watch(ctx, api, args, interval)
	default:
		printHelp(flagSet)
		return fmt.Errorf("неизвестная команда %q", args[0])
	}
}

func listItems(ctx context.Context, api *client.Client, itemType string) error {
	items, err := api.ListItems(ctx, itemType, 50, 0)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Printf("%s  [%s/%s]  %s  (%s, автор %s)\n", it.ID, it.Type, it.Status, it.Title, it.Location, it.OwnerDisplayName)
	}
	return nil
}

// watch держит открытой одну переписку и перерисовывает её на каждом тике.
func watch(ctx context.Context, api *client.Client, args []string, interval time.Duration) error {
	itemID, err := parseIDArg(args, 1, "item-id")
	if err != nil {
		return err
	}

	view := "thread:" + itemID.String()
	fetch := func(ctx context.Context) error {
		thread, err := api.GetThread(ctx, itemID)
		if err != nil {
			return err
		}
		renderThread(thread)
		return nil
	}

	if len(args) > 2 {
		otherID, err := parseIDArg(args, 2, "other-user-id")
		if err != nil {
			return err
		}
		view += ":" + otherID.String()
		fetch = func(ctx context.Context) error {
			thread, err := api.GetThreadWith(ctx, itemID, otherID)
			if err != nil {
				return err
			}
			renderThread(thread)
			return nil
		}
	}

	coordinator := poller.New(interval, poller.WithOnError(func(view string, err error) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", view, err)
	}))
	coordinator.Open(ctx, view, fetch)

	<-ctx.Done()
	coordinator.Close()
	return nil
}

func renderThread(thread *dto.ThreadResponse) {
	fmt.Print("\033[H\033[2J")
	if thread.IsOwner && len(thread.Threads) > 0 {
		fmt.Println("Собеседники:")
		for _, s := range thread.Threads {
			fmt.Printf("  %s  %s  %s\n", s.CounterpartyID, s.LastMessageAt.Format("15:04:05"), s.LastMessagePreview)
		}
		return
	}
	if len(thread.Messages) == 0 {
		fmt.Println("Сообщений пока нет.")
		return
	}
	for _, m := range thread.Messages {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), m.SenderID.String()[:8], m.Content)
	}
}

func parseIDArg(args []string, idx int, name string) (uuid.UUID, error) {
	if len(args) <= idx {
		return uuid.Nil, fmt.Errorf("%s: укажите %s", args[0], name)
	}
	id, err := uuid.Parse(args[idx])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: некорректный %s: %w", args[0], name, err)
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `lostfound-cli: консольный клиент сервиса находок.

Команды:
  items                                лента объявлений
  pin <item-id>                        получить PIN для передачи вещи
  verify <item-id> <pin>               подтвердить передачу (автор объявления)
  send <item-id> <receiver-id> <text>  отправить сообщение
  watch <item-id> [other-user-id]      следить за перепиской

Флаги:
`)
	flagSet.PrintDefaults()
}
