package sqlstore

import "github.com/ThiagoDev202/supersdr-prova-tecnica/core"

var (
	_ core.MessageRepository = (*MessageStore)(nil)
	_ core.MessageRepository = (*CachedMessageStore)(nil)
)
