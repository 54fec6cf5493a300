package query

import (
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetMessageMessage, core.Message]          = (*GetMessageQuery)(nil)
	_ gocmd.Querier[ClassifyTextMessage, core.Classification] = (*ClassifyTextQuery)(nil)
)
