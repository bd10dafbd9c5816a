package warehouse

import (
	"log"
	"testing"
)

// Test component types shared by the rest of this package's tests.
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

func TestEntityCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name           string
		componentTypes []Component
		entityCount    int
	}{
		{"Single component", []Component{posComp}, 10},
		{"Multiple components", []Component{posComp, velComp}, 5},
		{"Large batch", []Component{posComp, velComp, healthComp}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()

			entities, err := storage.NewEntities(tt.entityCount, tt.componentTypes...)
			if err != nil {
				t.Fatalf("NewEntities() error = %v", err)
			}

			if len(entities) != tt.entityCount {
				t.Errorf("Created %d entities, want %d", len(entities), tt.entityCount)
			}

			for i, entity := range entities {
				if !entity.Valid() {
					t.Errorf("Entity %d is invalid", i)
				}
			}

			if len(entities) > 0 {
				components := entities[0].Components()
				if len(components) != len(tt.componentTypes) {
					t.Errorf("Entity has %d components, want %d", len(components), len(tt.componentTypes))
				}
			}
		})
	}
}

func TestComponentAddRemove(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name              string
		initialComponents []Component
		addComponents     []Component
		removeComponents  []Component
		finalCount        int
	}{
		{
			name:              "Add component",
			initialComponents: []Component{posComp},
			addComponents:     []Component{velComp},
			finalCount:        2,
		},
		{
			name:              "Remove component",
			initialComponents: []Component{posComp, velComp},
			removeComponents:  []Component{velComp},
			finalCount:        1,
		},
		{
			name:              "Add and remove",
			initialComponents: []Component{posComp},
			addComponents:     []Component{velComp, healthComp},
			removeComponents:  []Component{posComp},
			finalCount:        2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()

			entities, err := storage.NewEntities(1, tt.initialComponents...)
			if err != nil {
				t.Fatalf("Failed to create entity: %v", err)
			}
			entity := entities[0]

			for _, comp := range tt.addComponents {
				if err := entity.AddComponent(comp); err != nil {
					t.Errorf("AddComponent() error = %v", err)
				}
			}
			for _, comp := range tt.removeComponents {
				if err := entity.RemoveComponent(comp); err != nil {
					t.Errorf("RemoveComponent() error = %v", err)
				}
			}

			components := entity.Components()
			if len(components) != tt.finalCount {
				log.Println(entity.ComponentsAsString())
				t.Errorf("Entity has %d components, want %d", len(components), tt.finalCount)
			}
		})
	}
}

func TestComponentValues(t *testing.T) {
	storage := Factory.NewStorage()

	positionComp := FactoryNewComponent[Position]()
	velocityComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	initialPos := Position{X: 1.0, Y: 2.0}
	initialVel := Velocity{X: 3.0, Y: 4.0}

	entities, err := storage.NewEntities(1, healthComp)
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	entity := entities[0]

	if err := entity.AddComponentWithValue(positionComp, initialPos); err != nil {
		t.Fatalf("Failed to add position component: %v", err)
	}
	if err := entity.AddComponentWithValue(velocityComp, initialVel); err != nil {
		t.Fatalf("Failed to add velocity component: %v", err)
	}

	posPtr, err := positionComp.GetFromEntity(entity)
	if err != nil {
		t.Fatalf("GetFromEntity: %v", err)
	}
	velPtr, err := velocityComp.GetFromEntity(entity)
	if err != nil {
		t.Fatalf("GetFromEntity: %v", err)
	}

	if posPtr.X != initialPos.X || posPtr.Y != initialPos.Y {
		t.Errorf("Position = {%v, %v}, want {%v, %v}", posPtr.X, posPtr.Y, initialPos.X, initialPos.Y)
	}
	if velPtr.X != initialVel.X || velPtr.Y != initialVel.Y {
		t.Errorf("Velocity = {%v, %v}, want {%v, %v}", velPtr.X, velPtr.Y, initialVel.X, initialVel.Y)
	}

	posPtr.X, posPtr.Y = 5.0, 6.0
	velPtr.X, velPtr.Y = 7.0, 8.0

	posPtr2, err := positionComp.GetFromEntity(entity)
	if err != nil {
		t.Fatalf("GetFromEntity: %v", err)
	}
	velPtr2, err := velocityComp.GetFromEntity(entity)
	if err != nil {
		t.Fatalf("GetFromEntity: %v", err)
	}

	if posPtr2.X != 5.0 || posPtr2.Y != 6.0 {
		t.Errorf("Updated Position = {%v, %v}, want {5.0, 6.0}", posPtr2.X, posPtr2.Y)
	}
	if velPtr2.X != 7.0 || velPtr2.Y != 8.0 {
		t.Errorf("Updated Velocity = {%v, %v}, want {7.0, 8.0}", velPtr2.X, velPtr2.Y)
	}
}

func TestEntityParentRelationship(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()

	entities, err := storage.NewEntities(2, posComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	child, parent := entities[0], entities[1]

	destroyed := false
	if err := child.SetParent(parent, func(Entity) { destroyed = true }); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}
	if child.Parent() != parent {
		t.Errorf("child.Parent() did not return the expected parent")
	}

	if err := storage.DestroyEntities(parent); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}
	if !destroyed {
		t.Errorf("destroy callback was not invoked")
	}

	if err := child.SetParent(parent, nil); err == nil {
		t.Errorf("expected error setting a second parent")
	}
}

// TestGetFromEntityAfterDespawn verifies that reading a component through a
// stale EntityId returns NoSuchEntityError rather than aborting the process,
// matching the recoverable classification NoSuchEntity is given everywhere
// else in this package.
func TestGetFromEntityAfterDespawn(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()

	entities, err := storage.NewEntities(1, posComp)
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	entity := entities[0]

	if err := storage.DestroyEntities(entity); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}

	if _, err := posComp.GetFromEntity(entity); err == nil {
		t.Fatalf("expected NoSuchEntityError reading a despawned entity")
	} else if _, ok := err.(NoSuchEntityError); !ok {
		t.Errorf("GetFromEntity error = %T, want NoSuchEntityError", err)
	}

	if _, err := posComp.GetFromEntityMut(entity, storage.NextEpoch()); err == nil {
		t.Fatalf("expected NoSuchEntityError mutating a despawned entity")
	} else if _, ok := err.(NoSuchEntityError); !ok {
		t.Errorf("GetFromEntityMut error = %T, want NoSuchEntityError", err)
	}
}
