package app

// Level is how a transient notice is styled.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

type Notice struct {
	ID      int
	Level   Level
	Message string
}

// Notices is the stack of transient messages. The UI dismisses each one
// after a delay, so every push is also queued in fresh until collected.
type Notices struct {
	items []Notice
	fresh []Notice
	next  int
}

func (n *Notices) Push(level Level, message string) Notice {
	n.next++
	notice := Notice{ID: n.next, Level: level, Message: message}
	n.items = append(n.items, notice)
	n.fresh = append(n.fresh, notice)
	return notice
}

func (n *Notices) Success(message string) Notice {
	return n.Push(LevelSuccess, message)
}

func (n *Notices) Error(message string) Notice {
	return n.Push(LevelError, message)
}

func (n *Notices) Dismiss(id int) {
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

func (n *Notices) All() []Notice {
	return n.items
}

// Fresh returns the notices pushed since the previous call.
func (n *Notices) Fresh() []Notice {
	out := n.fresh
	n.fresh = nil
	return out
}
