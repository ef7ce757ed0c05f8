// shopper は端末からカートとチェックアウトを操作する。
// カートは端末ローカル（sqlite）に置き、-userを付けるとサーバー側のカートと同期する。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/localstore"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logging"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const deviceIDKey = "device_id"

const usage = `usage: shopper [-user ID] [-local PATH] <command> [flags]

commands:
  show                                   カートを表示
  add -product ID [-size S] [-color C] [-qty N]
  set -product ID [-size S] [-color C] -qty N
  remove -product ID [-size S] [-color C]
  clear
  checkout -name -street -city -postal -country -phone [-province] [-shipping estandar|express] -payment METHOD [-notes]
  orders                                 注文履歴
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      config.Config
	log      *slog.Logger
	out      io.Writer
	remoteDB *gorm.DB // 繋がらなければnil
	cart     *usecase.CartStore
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("shopper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.String("user", os.Getenv("SHOPPER_USER_ID"), "ログイン中のユーザーID（空なら未ログイン）")
	localPath := fs.String("local", cfg.LocalCartPath, "端末ローカルのカート保存先（空なら保存しない）")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -local "" なら保存しない
	var local repo.LocalStorage = localstore.NewMemoryStore()
	if *localPath != "" {
		s, err := localstore.OpenSQLiteStore(*localPath)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		defer s.Close()
		local = s
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel).With("device_id", deviceID(local))

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	remoteDB, err := db.Connect(connectCtx, cfg.DSN())
	cancel()
	if err != nil {
		// サーバーが無くてもローカルのカートは使える
		logger.Warn("remote store unavailable, running local-only", "error", err.Error())
		remoteDB = nil
	}
	defer func() {
		if remoteDB != nil {
			if sqlDB, err := remoteDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}()

	a := newApp(ctx, cfg, logger, out, local, remoteDB, *userID)
	return a.exec(ctx, fs.Arg(0), fs.Args()[1:])
}

// newApp はカートを読み込んだ状態のappを作る。remoteDBがnilならローカルだけ。
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer, local repo.LocalStorage, remoteDB *gorm.DB, userID string) *app {
	a := &app{cfg: cfg, log: logger, out: out, remoteDB: remoteDB}

	var remote repo.CartRepository
	if remoteDB != nil {
		remote = infraRepo.NewCartGormRepository(remoteDB)
	}
	a.cart = usecase.NewCartStore(local, remote, logger)
	a.cart.Load(ctx, usecase.Identity{UserID: userID})
	return a
}

func (a *app) exec(ctx context.Context, cmd string, args []string) error {
	defer a.cart.Flush()

	switch cmd {
	case "show":
		a.show()
		return nil
	case "add":
		return a.add(ctx, args)
	case "set":
		return a.set(ctx, args)
	case "remove":
		return a.remove(ctx, args)
	case "clear":
		a.cart.Clear(ctx)
		a.show()
		return nil
	case "checkout":
		return a.checkout(ctx, args)
	case "orders":
		return a.orders(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// 端末ごとのID（初回に作って保存）
func deviceID(s repo.LocalStorage) string {
	if v, ok, err := s.Get(deviceIDKey); err == nil && ok && v != "" {
		return v
	}
	id := uuid.NewString()
	_ = s.Set(deviceIDKey, id)
	return id
}

type lineFlags struct {
	product string
	size    string
	color   string
	qty     int64
}

func parseLineFlags(name string, args []string, defaultQty int64) (lineFlags, error) {
	var lf lineFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&lf.product, "product", "", "商品ID")
	fs.StringVar(&lf.size, "size", "", "サイズ")
	fs.StringVar(&lf.color, "color", "", "色")
	fs.Int64Var(&lf.qty, "qty", defaultQty, "数量")
	if err := fs.Parse(args); err != nil {
		return lineFlags{}, err
	}
	if lf.product == "" {
		return lineFlags{}, errors.New("-product is required")
	}
	return lf, nil
}

func (lf lineFlags) key() model.CartLineKey {
	return model.CartLineKey{ProductID: lf.product, Size: lf.size, Color: lf.color}
}

func (a *app) add(ctx context.Context, args []string) error {
	lf, err := parseLineFlags("add", args, 1)
	if err != nil {
		return err
	}
	if a.remoteDB == nil {
		return errors.New("catalog unavailable (remote store not reachable)")
	}

	// 追加時点の名前と価格を写す
	p, err := infraRepo.NewProductGormRepository(a.remoteDB).FindByID(ctx, lf.product)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return fmt.Errorf("product %s not found", lf.product)
	}
	if err != nil {
		return err
	}

	if err := a.cart.Add(ctx, model.CartLine{
		ProductID:     p.ID,
		Name:          p.Name,
		UnitPrice:     p.Price,
		ImageRef:      p.ImageRef,
		SelectedSize:  lf.size,
		SelectedColor: lf.color,
		Quantity:      lf.qty,
	}); err != nil {
		return err
	}
	a.show()
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	lf, err := parseLineFlags("set", args, 0)
	if err != nil {
		return err
	}
	a.cart.SetQuantity(ctx, lf.key(), lf.qty)
	a.show()
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	lf, err := parseLineFlags("remove", args, 0)
	if err != nil {
		return err
	}
	a.cart.Remove(ctx, lf.key())
	a.show()
	return nil
}

func (a *app) show() {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	for _, l := range lines {
		variant := ""
		if l.SelectedSize != "" || l.SelectedColor != "" {
			variant = fmt.Sprintf(" [%s/%s]", l.SelectedSize, l.SelectedColor)
		}
		fmt.Fprintf(a.out, "%-36s %s%s  %d x %s = %s\n", l.ProductID, l.Name, variant, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(a.out, "items: %d  total: %s\n", a.cart.Count(), a.cart.Total().StringFixed(2))
}

func (a *app) checkoutUsecase() *usecase.CheckoutUsecase {
	return usecase.NewCheckoutUsecase(
		infraRepo.NewStockGormRepository(a.remoteDB),
		infraRepo.NewOrderGormRepository(a.remoteDB),
		infraRepo.NewOrderItemGormRepository(a.remoteDB),
		events.NopPublisher{},
		a.cfg.Checkout,
		a.log,
	)
}

func (a *app) checkout(ctx context.Context, args []string) error {
	var info usecase.ShippingInfo
	var shipping, payment, notes string
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.StringVar(&info.FullName, "name", "", "氏名")
	fs.StringVar(&info.Street, "street", "", "住所")
	fs.StringVar(&info.City, "city", "", "市")
	fs.StringVar(&info.PostalCode, "postal", "", "郵便番号")
	fs.StringVar(&info.Province, "province", "", "県")
	fs.StringVar(&info.Country, "country", "", "国")
	fs.StringVar(&info.Phone, "phone", "", "電話")
	fs.StringVar(&shipping, "shipping", string(model.ShippingStandard), "estandar|express")
	fs.StringVar(&payment, "payment", "", "支払い方法")
	fs.StringVar(&notes, "notes", "", "備考")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validator.ValidateCheckout(usecase.CheckoutCartInput{
		Shipping:      info,
		ShippingType:  model.ShippingType(shipping),
		PaymentMethod: payment,
		Notes:         notes,
	}); err != nil {
		return err
	}
	if a.remoteDB == nil {
		return errors.New("checkout needs the remote store")
	}

	uc := a.checkoutUsecase()
	defer uc.Wait()

	session, err := uc.OpenSession(ctx, a.cart)
	if err != nil {
		return errors.New(usecase.UserMessage(err))
	}
	if err := session.SetShipping(info, model.ShippingType(shipping)); err != nil {
		return errors.New(session.Message())
	}
	if err := session.SetPayment(payment, notes); err != nil {
		return errors.New(session.Message())
	}

	sum := session.Summary()
	fmt.Fprintf(a.out, "subtotal: %s  shipping: %s  total: %s\n",
		sum.Subtotal.StringFixed(2), sum.ShippingCost.StringFixed(2), sum.Total.StringFixed(2))

	res, err := session.Submit(ctx)
	if err != nil {
		return fmt.Errorf("%s (step: %s)", session.Message(), session.Step())
	}
	a.cart.Flush()

	fmt.Fprintf(a.out, "order %s placed, total %s\n", res.OrderID, res.Total.StringFixed(2))
	fmt.Fprintf(a.out, "showing order history in %s...\n", session.RedirectAfter())
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(session.RedirectAfter()):
	}
	return a.orders(ctx)
}

func (a *app) orders(ctx context.Context) error {
	id := a.cart.Identity()
	if id.IsAnonymous() {
		return errors.New("-user is required")
	}
	if a.remoteDB == nil {
		return errors.New("order history needs the remote store")
	}

	page, err := usecase.NewOrderUsecase(infraRepo.NewTxManagerGorm(a.remoteDB)).ListMyOrders(ctx, id.UserID, 1, 10)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Fprintln(a.out, "no orders yet")
		return nil
	}
	for _, o := range page.Items {
		fmt.Fprintf(a.out, "%s  %s  %-10s  %s  (%d items)\n",
			o.CreatedAt.Local().Format("2006-01-02 15:04"), o.ID, o.Status, o.Total.StringFixed(2), len(o.Items))
	}
	return nil
}
