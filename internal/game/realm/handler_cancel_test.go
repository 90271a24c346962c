package realm

import (
	"testing"

	"runegate.gg/internal/protocol"
)

func startChannel(f *fixture, spellID uint32) *Cast {
	def := f.r.catalogs.Spell(spellID)
	cast := f.r.engine.CreateCast(f.player, def, TriggeredNone)
	f.r.engine.Prepare(cast, Targets{})
	f.player.setCurrentCast(cast)
	return cast
}

func TestCancelCast_InterruptsNonMelee(t *testing.T) {
	f := newFixture(t)
	startChannel(f, 200)

	f.r.handleCancelCast(f.sess, protocol.CancelCastMsg{Type: protocol.TypeCancelCast})
	if f.player.CurrentCast(CastChanneled) != nil {
		t.Fatalf("cancel cast left the channel running")
	}
}

func TestCancelCast_SpellIDFilter(t *testing.T) {
	f := newFixture(t)
	startChannel(f, 200)

	f.r.handleCancelCast(f.sess, protocol.CancelCastMsg{Type: protocol.TypeCancelCast, SpellID: 999})
	if f.player.CurrentCast(CastChanneled) == nil {
		t.Fatalf("mismatched spell id interrupted the channel")
	}

	f.r.handleCancelCast(f.sess, protocol.CancelCastMsg{Type: protocol.TypeCancelCast, SpellID: 200})
	if f.player.CurrentCast(CastChanneled) != nil {
		t.Fatalf("matching spell id did not interrupt")
	}
}

func TestCancelAura_ChanneledMatchesCurrentOnly(t *testing.T) {
	f := newFixture(t)
	startChannel(f, 200)

	// Cancelling a different channeled spell's "aura" is a no-op.
	f.r.handleCancelAura(f.sess, protocol.CancelAuraMsg{Type: protocol.TypeCancelAura, SpellID: 202})
	if f.player.CurrentCast(CastChanneled) == nil {
		t.Fatalf("non-matching channeled cancel interrupted the channel")
	}

	f.r.handleCancelAura(f.sess, protocol.CancelAuraMsg{Type: protocol.TypeCancelAura, SpellID: 200})
	if f.player.CurrentCast(CastChanneled) != nil {
		t.Fatalf("matching channeled cancel did not interrupt")
	}
}

func TestCancelAura_FilterRules(t *testing.T) {
	f := newFixture(t)
	f.r.ApplyAura(f.player, 300, f.player.GUID, 0) // positive, cancellable
	f.r.ApplyAura(f.player, 310, f.player.GUID, 0) // cancel-immune
	f.r.ApplyAura(f.player, 311, f.player.GUID, 0) // negative
	f.r.ApplyAura(f.player, 312, f.player.GUID, 0) // passive

	cancel := func(id uint32) {
		f.r.handleCancelAura(f.sess, protocol.CancelAuraMsg{Type: protocol.TypeCancelAura, SpellID: id})
	}
	has := func(id uint32) bool {
		for _, au := range f.player.Auras() {
			if au.SpellID == id {
				return true
			}
		}
		return false
	}

	cancel(310)
	if !has(310) {
		t.Fatalf("cancel-immune aura removed")
	}
	cancel(311)
	if !has(311) {
		t.Fatalf("negative aura removed by client cancel")
	}
	cancel(312)
	if !has(312) {
		t.Fatalf("passive aura removed by client cancel")
	}
	cancel(300)
	if has(300) {
		t.Fatalf("cancellable positive aura not removed")
	}
}

func TestCancelAura_CasterScoped(t *testing.T) {
	f := newFixture(t)
	other := f.r.SpawnCreature("shaman")
	f.r.ApplyAura(f.player, 300, other.GUID, 0)

	// Wrong caster guid: nothing removed.
	f.r.handleCancelAura(f.sess, protocol.CancelAuraMsg{
		Type: protocol.TypeCancelAura, SpellID: 300, CasterGUID: uint64(f.player.GUID)})
	if len(f.player.Auras()) != 1 {
		t.Fatalf("wrong-caster cancel removed the aura")
	}

	f.r.handleCancelAura(f.sess, protocol.CancelAuraMsg{
		Type: protocol.TypeCancelAura, SpellID: 300, CasterGUID: uint64(other.GUID)})
	if len(f.player.Auras()) != 0 {
		t.Fatalf("matching-caster cancel kept the aura")
	}
}

func TestPetCancelAura_UnknownSpellStillRuns(t *testing.T) {
	f := newFixture(t)
	pet := f.r.SpawnCreature("imp")
	pet.OwnerGUID = f.player.GUID
	f.player.GuardianPet = pet.GUID
	f.r.ApplyAura(pet, 300, 0, 0)

	// The spell id is garbage, yet the removal still runs against whatever
	// the pet holds under that id (here: nothing) and the request is audited.
	f.r.handlePetCancelAura(f.sess, protocol.PetCancelAuraMsg{
		Type: protocol.TypePetCancelAura, PetGUID: uint64(pet.GUID), SpellID: 4242})
	if f.audit.lastKind() != AuditUnknownPetSpell {
		t.Fatalf("unknown pet spell not audited: %q", f.audit.lastKind())
	}
	if len(pet.Auras()) != 1 {
		t.Fatalf("unrelated pet aura removed")
	}

	// A known id removes normally.
	f.r.handlePetCancelAura(f.sess, protocol.PetCancelAuraMsg{
		Type: protocol.TypePetCancelAura, PetGUID: uint64(pet.GUID), SpellID: 300})
	if len(pet.Auras()) != 0 {
		t.Fatalf("pet aura not removed")
	}
}

func TestPetCancelAura_NotOwnPet(t *testing.T) {
	f := newFixture(t)
	stray := f.r.SpawnCreature("stray")
	f.r.ApplyAura(stray, 300, 0, 0)

	f.r.handlePetCancelAura(f.sess, protocol.PetCancelAuraMsg{
		Type: protocol.TypePetCancelAura, PetGUID: uint64(stray.GUID), SpellID: 300})
	if len(stray.Auras()) != 1 {
		t.Fatalf("foreign unit's aura removed")
	}
	expectNoOutbound(t, f.out)
}

func TestPetCancelAura_DeadPetFeedback(t *testing.T) {
	f := newFixture(t)
	pet := f.r.SpawnCreature("imp")
	f.player.GuardianPet = pet.GUID
	pet.Alive = false
	f.r.ApplyAura(pet, 300, 0, 0)

	f.r.handlePetCancelAura(f.sess, protocol.PetCancelAuraMsg{
		Type: protocol.TypePetCancelAura, PetGUID: uint64(pet.GUID), SpellID: 300})

	m := recv(t, f.out)
	if m["type"] != protocol.TypePetActionFeedback || m["response"] != protocol.PetFeedbackDead {
		t.Fatalf("expected DEAD feedback, got %v", m)
	}
	if len(pet.Auras()) != 1 {
		t.Fatalf("dead pet's aura removed")
	}
}

func TestCategorySweep_SparesProtectedApplications(t *testing.T) {
	f := newFixture(t)
	// Three mount-category applications with different protections.
	f.r.ApplyAura(f.player, 301, f.player.GUID, 0) // plain positive mount
	protectedAura := f.r.ApplyAura(f.player, 301, f.player.GUID, 0)
	protectedAura.CancelImmune = true
	negative := f.r.ApplyAura(f.player, 301, f.player.GUID, 0)
	negative.Positive = false

	f.r.handleCancelMountAura(f.sess, protocol.CancelMountAuraMsg{Type: protocol.TypeCancelMountAura})

	left := f.player.Auras()
	if len(left) != 2 {
		t.Fatalf("sweep kept %d applications, want 2", len(left))
	}
	for _, au := range left {
		if !au.CancelImmune && au.Positive {
			t.Fatalf("unprotected application survived the sweep")
		}
	}
}

func TestCancelModSpeed_MoverMismatch(t *testing.T) {
	f := newFixture(t)
	f.r.ApplyAura(f.player, 302, f.player.GUID, 0)

	f.r.handleCancelModSpeed(f.sess, protocol.CancelModSpeedMsg{
		Type: protocol.TypeCancelModSpeed, TargetGUID: uint64(f.player.GUID) + 5})
	if len(f.player.Auras()) != 1 {
		t.Fatalf("mover mismatch still swept")
	}

	f.r.handleCancelModSpeed(f.sess, protocol.CancelModSpeedMsg{
		Type: protocol.TypeCancelModSpeed, TargetGUID: uint64(f.player.GUID)})
	if len(f.player.Auras()) != 0 {
		t.Fatalf("matching mover did not sweep")
	}
}

func TestCancelChannelling_IdentityChecks(t *testing.T) {
	f := newFixture(t)
	startChannel(f, 200)

	// Unknown spell id: drop, channel stands.
	f.r.handleCancelChannelling(f.sess, protocol.CancelChannellingMsg{
		Type: protocol.TypeCancelChannelling, SpellID: 9999})
	if f.player.CurrentCast(CastChanneled) == nil {
		t.Fatalf("unknown spell id interrupted the channel")
	}

	// Known but different channel: the running cast is not the one named.
	f.r.handleCancelChannelling(f.sess, protocol.CancelChannellingMsg{
		Type: protocol.TypeCancelChannelling, SpellID: 202})
	if f.player.CurrentCast(CastChanneled) == nil {
		t.Fatalf("mismatched cancel interrupted the channel")
	}

	f.r.handleCancelChannelling(f.sess, protocol.CancelChannellingMsg{
		Type: protocol.TypeCancelChannelling, SpellID: 200})
	if f.player.CurrentCast(CastChanneled) != nil {
		t.Fatalf("matching cancel did not interrupt")
	}
}

func TestCancelChannelling_CancelImmune(t *testing.T) {
	f := newFixture(t)
	startChannel(f, 202) // no_aura_cancel

	f.r.handleCancelChannelling(f.sess, protocol.CancelChannellingMsg{
		Type: protocol.TypeCancelChannelling, SpellID: 202})
	if f.player.CurrentCast(CastChanneled) == nil {
		t.Fatalf("cancel-immune channel interrupted by client")
	}
}

func TestCancelChannelling_CreatureMoverAllowed(t *testing.T) {
	f := newFixture(t)
	pet := f.r.SpawnCreature("imp")
	f.player.MovedAs = pet.GUID

	def := f.r.catalogs.Spell(200)
	cast := f.r.engine.CreateCast(pet, def, TriggeredNone)
	pet.setCurrentCast(cast)

	f.r.handleCancelChannelling(f.sess, protocol.CancelChannellingMsg{
		Type: protocol.TypeCancelChannelling, SpellID: 200})
	if pet.CurrentCast(CastChanneled) != nil {
		t.Fatalf("creature mover's channel not cancellable by its controller")
	}
}

func TestCancelAutoRepeat(t *testing.T) {
	f := newFixture(t)
	def := f.r.catalogs.Spell(201)
	cast := f.r.engine.CreateCast(f.player, def, TriggeredNone)
	f.player.setCurrentCast(cast)

	f.r.handleCancelAutoRepeat(f.sess, protocol.CancelAutoRepeatMsg{Type: protocol.TypeCancelAutoRepeat})
	if f.player.CurrentCast(CastAutoRepeat) != nil {
		t.Fatalf("auto-repeat not cancelled")
	}
}
