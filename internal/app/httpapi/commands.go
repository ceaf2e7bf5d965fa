package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/greenloop/ecobot/internal/app/services/vision"
	"github.com/greenloop/ecobot/internal/app/services/wallet"
	"github.com/greenloop/ecobot/internal/discord"
	apperrors "github.com/greenloop/ecobot/internal/errors"
)

// Metric outcome labels.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

const receiptColor = 0x00ff00

// dispatch routes a command invocation to its handler. The table is
// static; anything else, including commands registered with the platform
// but never wired here, is an unknown command.
func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction) {
	name := ""
	if interaction.Data != nil {
		name = interaction.Data.Name
	}

	switch name {
	case "balance":
		h.handleBalance(ctx, w, interaction)
	case "shop":
		h.handleShop(ctx, w, interaction)
	case "buy":
		h.handleBuy(ctx, w, interaction)
	case "submit_image":
		h.handleSubmitImage(ctx, w, interaction)
	default:
		h.log.WithContext(ctx).WithField("command", name).Warn("unknown command")
		h.metrics.RecordInteraction(name, outcomeError)
		h.writeError(ctx, w, apperrors.UnknownCommand(name))
	}
}

func (h *Handler) handleBalance(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction) {
	userID := interaction.UserID()
	if userID == "" {
		h.metrics.RecordInteraction("balance", outcomeError)
		h.writeError(ctx, w, apperrors.InvalidPayload("Invalid user information"))
		return
	}

	tokens := h.wallet.Balance(ctx, userID)
	content := fmt.Sprintf("<@%s>, you have %d tokens.", userID, tokens)
	if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
		h.metrics.RecordInteraction("balance", outcomeOK)
	}
}

func (h *Handler) handleShop(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction) {
	lines := make([]string, 0, len(h.catalog.Items))
	for _, item := range h.catalog.Items {
		lines = append(lines, fmt.Sprintf("%s: %d tokens", item.Name, item.Price))
	}

	content := "**Shop Items:**\n" + strings.Join(lines, "\n")
	if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
		h.metrics.RecordInteraction("shop", outcomeOK)
	}
}

func (h *Handler) handleBuy(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction) {
	userID := interaction.UserID()
	item, ok := interaction.FirstOption()
	if userID == "" || !ok {
		h.metrics.RecordInteraction("buy", outcomeError)
		h.writeError(ctx, w, apperrors.InvalidPayload("Invalid item"))
		return
	}

	price, exists := h.catalog.Price(item)
	if !exists {
		content := fmt.Sprintf("<@%s>, the item %s does not exist in the shop.", userID, item)
		if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
			h.metrics.RecordInteraction("buy", outcomeRejected)
		}
		return
	}

	_, err := h.wallet.Spend(ctx, userID, price)
	if errors.Is(err, wallet.ErrInsufficientFunds) {
		content := fmt.Sprintf("<@%s>, you don't have enough tokens to buy %s!", userID, item)
		if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
			h.metrics.RecordInteraction("buy", outcomeRejected)
		}
		return
	}
	if err != nil {
		h.metrics.RecordInteraction("buy", outcomeError)
		h.writeError(ctx, w, apperrors.Upstream("Failed to process the purchase", err))
		return
	}

	// The purchase is committed; the receipt is best-effort and its
	// failure must not undo or fail the command.
	h.sendReceipt(ctx, userID, item, price)

	content := fmt.Sprintf("<@%s>, you bought %s for %d tokens!", userID, item, price)
	if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
		h.metrics.RecordInteraction("buy", outcomeOK)
	}
}

func (h *Handler) sendReceipt(ctx context.Context, userID, item string, price int64) {
	embed := discord.Embed{
		Title:       "Transaction Receipt",
		Description: fmt.Sprintf("You have successfully bought **%s** for **%d tokens**.", item, price),
		Color:       receiptColor,
		Fields: []discord.EmbedField{{
			Name:  "Instructions",
			Value: "Please screenshot this message and show it to our staff to claim your item.",
		}},
	}

	if err := h.responder.SendDM(ctx, userID, embed); err != nil {
		h.log.WithContext(ctx).WithError(err).WithField("item", item).Warn("receipt delivery failed")
	}
}

func (h *Handler) handleSubmitImage(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction) {
	userID := interaction.UserID()
	url, ok := interaction.FirstOption()
	if userID == "" || !ok {
		h.metrics.RecordInteraction("submit_image", outcomeError)
		h.writeError(ctx, w, apperrors.InvalidPayload("Invalid request payload"))
		return
	}

	description, awarded, err := h.analyzer.Analyze(ctx, url)
	if errors.Is(err, vision.ErrNotImage) {
		content := fmt.Sprintf("<@%s>, that link does not point to an image, so I could not analyze it.", userID)
		if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
			h.metrics.RecordInteraction("submit_image", outcomeRejected)
		}
		return
	}
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Error("image analysis failed")
		h.metrics.RecordInteraction("submit_image", outcomeError)
		h.writeError(ctx, w, apperrors.Upstream("Failed to analyze the image", err))
		return
	}

	newBalance, err := h.wallet.Credit(ctx, userID, awarded)
	if err != nil {
		h.metrics.RecordInteraction("submit_image", outcomeError)
		h.writeError(ctx, w, apperrors.Upstream("Failed to process the image", err))
		return
	}

	content := fmt.Sprintf(
		"<@%s>, here is what I found in the image:\n%s\nYou have earned %d tokens. Your new balance is %d tokens.",
		userID, description, awarded, newBalance,
	)
	if h.respond(ctx, w, interaction, discord.ChannelMessage(content)) {
		h.metrics.RecordInteraction("submit_image", outcomeOK)
	}
}
