package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/guard"
	"github.com/dtroode/storefront/internal/model"
)

func (r *runner) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *runner) printProducts(w io.Writer, products []model.Product, pr model.PriceRange) error {
	if r.jsonOutput {
		return r.printJSON(w, map[string]any{
			"products":    products,
			"price_range": pr,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPrice range: %s - %s\n", pr.Min.String(), pr.Max.String())
	return err
}

func (r *runner) printProduct(w io.Writer, p model.Product) error {
	if r.jsonOutput {
		return r.printJSON(w, p)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Price:\t%s\n", p.Price.StringFixed(2))
	if p.Category != "" {
		fmt.Fprintf(tw, "Category:\t%s\n", p.Category)
	}
	if p.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	}
	return tw.Flush()
}

func (r *runner) printCart(w io.Writer, a *app.App) error {
	items := a.Store.Cart()
	count := a.Store.CartCount()
	total := a.Store.CartTotal()

	if r.jsonOutput {
		return r.printJSON(w, map[string]any{
			"items": items,
			"count": count,
			"total": total,
		})
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Name, it.Quantity, it.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nItems: %d\nTotal: %s\n", count, total.StringFixed(2))
	return err
}

func (r *runner) printSession(w io.Writer, sess model.Session) error {
	if r.jsonOutput {
		return r.printJSON(w, map[string]any{
			"state": sess.State.String(),
			"user":  sess.User,
		})
	}

	if sess.State != model.SessionPresent || sess.User == nil {
		_, err := fmt.Fprintf(w, "Session: %s\n", sess.State)
		return err
	}

	u := sess.User
	_, err := fmt.Fprintf(w, "Session: %s\nUser:    %s <%s>\nAdmin:   %t\n",
		sess.State, u.DisplayName, u.Email, u.IsAdmin)
	return err
}

func (r *runner) printIdentity(w io.Writer, identity *model.Identity) error {
	if r.jsonOutput {
		return r.printJSON(w, identity)
	}
	_, err := fmt.Fprintf(w, "User:  %s <%s>\nPhoto: %s\n", identity.Name(), identity.Email, identity.PhotoURL)
	return err
}

func (r *runner) printDecision(w io.Writer, target string, d guard.Decision) error {
	if r.jsonOutput {
		return r.printJSON(w, map[string]any{
			"target":  target,
			"outcome": d.Outcome.String(),
			"to":      d.To,
			"reason":  d.Reason,
		})
	}

	if d.Outcome == guard.Redirect {
		_, err := fmt.Fprintf(w, "%s: redirect to %s (%s)\n", target, d.To, d.Reason)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: allow (%s)\n", target, d.Reason)
	return err
}

func printNotices(w io.Writer, notices []model.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
}
