package warehouse

import "testing"

// TestQueryFiltering tests the structural And/Or/Not filter tree built from
// Query, driving a Cursor with no data terms of its own.
func TestQueryFiltering(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		build           func(q Query) QueryNode
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			build: func(q Query) QueryNode {
				return q.And(posComp, velComp)
			},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			build: func(q Query) QueryNode {
				return q.Or(posComp, velComp)
			},
			expectedMatches: 30,
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			build: func(q Query) QueryNode {
				return q.Not(velComp)
			},
			expectedMatches: 30, // posComp-only (10) + healthComp-only (20)
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			build: func(q Query) QueryNode {
				return q.Or(q.And(posComp, velComp), q.And(posComp, healthComp))
			},
			expectedMatches: 30, // (P AND V) OR (P AND H) = 5 + 10 + 15 (the 5 satisfy both, counted once)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sto := Factory.NewStorage()

			for _, setup := range tt.entitySetups {
				if _, err := sto.NewEntities(setup.count, setup.components...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			q := Factory.NewQuery()
			node := tt.build(q)
			cursor := Factory.NewCursor(nil, node, sto)

			matchCount := 0
			for cursor.Next() {
				matchCount++
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests term-tuple queries (Read access declarations)
// rather than the structural filter tree.
func TestQueryWithCursor(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name          string
		entityTypes   [][]Component
		queryTerms    []Term
		expectedCount int
	}{
		{
			name: "Query with position",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryTerms:    []Term{posComp.Read()},
			expectedCount: 20,
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryTerms:    []Term{posComp.Read(), velComp.Read()},
			expectedCount: 10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]Component{
				{posComp},
				{velComp},
			},
			queryTerms:    []Term{healthComp.Read()},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sto := Factory.NewStorage()

			for _, componentSet := range tt.entityTypes {
				if _, err := sto.NewEntities(10, componentSet...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			cursor := Factory.NewCursor(tt.queryTerms, nil, sto)
			count1 := 0
			for cursor.Next() {
				count1++
			}

			cursor = Factory.NewCursor(tt.queryTerms, nil, sto)
			count2 := cursor.TotalMatched()

			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}
			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

// TestQueryComponentAccess tests reading and mutating component data through
// a Cursor driven by Write/Read terms.
func TestQueryComponentAccess(t *testing.T) {
	sto := Factory.NewStorage()

	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	for i := 0; i < 10; i++ {
		entities, err := sto.NewEntities(1, posComp)
		if err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
		entity := entities[0]

		pos := Position{X: float64(i), Y: float64(i * 2)}
		posPtr, err := posComp.GetFromEntity(entity)
		if err != nil {
			t.Fatalf("GetFromEntity: %v", err)
		}
		*posPtr = pos

		vel := Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2}
		if err := entity.AddComponentWithValue(velComp, vel); err != nil {
			t.Fatalf("Failed to add velocity: %v", err)
		}
	}

	cursor := Factory.NewCursor([]Term{posComp.Write(), velComp.Read()}, nil, sto)
	for cursor.Next() {
		pos := posComp.GetFromCursorMut(cursor)
		vel := velComp.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	cursor = Factory.NewCursor([]Term{posComp.Read(), velComp.Read()}, nil, sto)
	for cursor.Next() {
		pos := posComp.GetFromCursor(cursor)
		vel := velComp.GetFromCursor(cursor)

		i := vel.X * 10
		expectedX := 1.1 * i
		expectedY := 2.2 * i

		if !almostEqual(pos.X, expectedX, 0.0001) || !almostEqual(pos.Y, expectedY, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X, pos.Y, vel.X, vel.Y)
		}
	}
}

func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// TestAccessConflict exercises the static access-conflict classifier of
// section 4.5: two terms conflict only when they name the same type and at
// least one of them writes.
func TestAccessConflict(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	tests := []struct {
		name     string
		a, b     Term
		conflict bool
	}{
		{"same type, both read", posComp.Read(), posComp.Read(), false},
		{"same type, read and write", posComp.Read(), posComp.Write(), true},
		{"same type, both write", posComp.Write(), posComp.Write(), true},
		{"different type, read and write", posComp.Read(), velComp.Write(), false},
		{"different type, both write", posComp.Write(), velComp.Write(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AccessConflict(tt.a, tt.b); got != tt.conflict {
				t.Errorf("AccessConflict(a, b) = %v, want %v", got, tt.conflict)
			}
			if got := AccessConflict(tt.b, tt.a); got != tt.conflict {
				t.Errorf("AccessConflict(b, a) = %v, want %v (not symmetric)", got, tt.conflict)
			}
		})
	}
}
