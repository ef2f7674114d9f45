package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/travelai/booking-chat/backend/internal/config"
	modelbooking "github.com/travelai/booking-chat/backend/internal/model/booking"
	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/ai"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	language := flag.String("lang", cfg.Session.DefaultLanguage, "会话语言: en 或 hi")
	timeout := flag.Duration("timeout", cfg.AI.Timeout, "单次生成请求超时时间")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	logCfg := cfg.Log
	if *verbose {
		logCfg.Level = "debug"
	} else {
		logCfg.Level = "warn"
	}
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	lang, err := chat.ParseLanguage(*language)
	if err != nil {
		log.Fatalf("语言参数无效: %v", err)
	}

	ctx := context.Background()
	aiService, err := ai.NewService(ctx, cfg.AI, logger)
	if err != nil {
		log.Fatalf("生成服务初始化失败: %v", err)
	}

	catalog := offer.Catalog(offer.NewSeedCatalog())
	if cfg.Catalog.OffersFile != "" {
		loaded, err := offer.LoadFile(cfg.Catalog.OffersFile)
		if err != nil {
			log.Fatalf("报价文件加载失败: %v", err)
		}
		catalog = loaded
	}

	session := chat.Session{
		ID:        fmt.Sprintf("cli-%d", time.Now().UnixNano()),
		Language:  lang,
		CreatedAt: time.Now().UTC(),
	}
	o := booking.NewOrchestrator(session, catalog, aiService,
		booking.WithTimeout(*timeout),
		booking.WithLogger(logger.Named("orchestrator")))
	defer o.Close()

	cli := &repl{o: o, catalog: catalog}
	cli.printWelcome()
	cli.run(ctx, bufio.NewScanner(os.Stdin))
}

type repl struct {
	o       *booking.Orchestrator
	catalog offer.Catalog
	shown   int
}

func (c *repl) printWelcome() {
	fmt.Printf("session %s, commands: /flights /hotels /select flight|hotel <id> /pay /lang /stop /state /quit\n", c.o.Session().ID)
	c.printNewMessages()
}

func (c *repl) run(ctx context.Context, scanner *bufio.Scanner) {
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "/quit" {
			return
		}

		done, err := c.dispatch(ctx, line)
		if err != nil {
			fmt.Printf("! %v\n", err)
		} else if done != nil {
			<-done
			c.printNewMessages()
			c.printStatus()
		}
		fmt.Print("> ")
	}
}

func (c *repl) dispatch(ctx context.Context, line string) (<-chan struct{}, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/flights":
		for _, f := range c.catalog.Flights() {
			fmt.Printf("  %s  %s %s→%s %s %s-%s %s\n", f.ID, f.Carrier, f.Origin, f.Destination, f.DepartDate, f.DepartTime, f.ArriveTime, f.Price)
		}
		return nil, nil
	case "/hotels":
		for _, h := range c.catalog.Hotels() {
			fmt.Printf("  %s  %s, %s %s/night ★%.1f\n", h.ID, h.Name, h.Location, h.Price, h.Rating)
		}
		return nil, nil
	case "/select":
		if len(fields) != 3 {
			return nil, errors.New("usage: /select flight|hotel <id>")
		}
		kind, err := offer.ParseKind(fields[1])
		if err != nil {
			return nil, err
		}
		return c.o.SelectOffer(ctx, kind, fields[2])
	case "/pay":
		return c.o.CompletePayment(ctx)
	case "/lang":
		return c.o.SwitchLanguage(ctx)
	case "/stop":
		if !c.o.Stop() {
			fmt.Println("nothing pending")
		}
		return nil, nil
	case "/state":
		c.printStatus()
		return nil, nil
	default:
		return c.o.Send(ctx, line)
	}
}

func (c *repl) printNewMessages() {
	state := c.o.State()
	for _, turn := range state.Messages[c.shown:] {
		prefix := "you"
		if turn.Role == chat.RoleAssistant {
			prefix = "assistant"
		}
		fmt.Printf("%s: %s\n", prefix, turn.Content)
	}
	c.shown = len(state.Messages)
}

func (c *repl) printStatus() {
	state := c.o.State()
	fmt.Printf("[stage=%s options=%s language=%s", state.Stage, state.Options, state.Language)
	if state.SelectedOfferID != "" {
		fmt.Printf(" selected=%s", state.SelectedOfferID)
	}
	fmt.Println("]")
	if state.Error != "" {
		fmt.Printf("! %s\n", state.Error)
	}
	if state.Options == modelbooking.OptionsPayment {
		fmt.Println("payment requested, type /pay to complete it")
	}
}
