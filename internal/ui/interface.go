package ui

import (
	"context"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
)

type Interface interface {
	// ReadCommand bloque jusqu'à la prochaine commande valide.
	// Retourne io.EOF quand l'entrée est fermée, ctx.Err() si ctx est annulé.
	ReadCommand(ctx context.Context) (Command, error)

	// Render affiche l'état de lecture.
	Render(ctx context.Context, v playback.View)

	// WaitForExit bloque jusqu'à ce qu'un signal d'annulation soit reçu via ctx (Ctrl+C).
	WaitForExit(ctx context.Context) error

	PrintInfo(ctx context.Context, s string)
	PrintError(ctx context.Context, s string)
}
