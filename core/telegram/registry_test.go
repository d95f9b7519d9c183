package telegram

import (
	"testing"

	"github.com/m3rciful/schedulebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start", Aliases: []string{"begin"}})
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/hidden", commands.Command{Handler: noop, Description: "hidden", Hidden: true})

	for _, text := range []string{"/start", "/start@schedule_bot", "/start Иванов", "/begin"} {
		key, _, ok := reg.LookupCommand(text)
		if !ok || key != "/start" {
			t.Fatalf("LookupCommand(%q) = %q, %v", text, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/help"); ok {
		t.Fatalf("command without slash prefix must not be registered")
	}
	if menu := reg.ListCommands(true); len(menu) != 1 || menu[0].Text != "/start" {
		t.Fatalf("unexpected menu %+v", menu)
	}
	if all := reg.ListCommands(false); len(all) != 2 || all[0].Text != "/hidden" {
		t.Fatalf("unexpected command list %+v", all)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("week", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("week", noop); err == nil {
		t.Fatalf("duplicate callback must fail")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatalf("empty key must fail")
	}
	if _, ok := reg.GetCallback("week"); !ok {
		t.Fatalf("week callback not found")
	}
	reg.SetCallbackNotFound(nil)
	if reg.CallbackNotFound() == nil {
		t.Fatalf("nil must not replace the default not-found handler")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "week" {
		t.Fatalf("unexpected callbacks %v", keys)
	}
}
